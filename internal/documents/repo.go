package documents

import "context"

// Repo defines persistence operations for documents. Every lookup is scoped
// to the owning user; a document of another user reads as ErrNotFound.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// List returns one page, newest first, and the total number of matches.
	List(ctx context.Context, userID string, f ListFilter) ([]Document, int, error)
	SetStatus(ctx context.Context, userID, documentID, status string) (Document, error)
	// Delete removes the document together with its extraction and chat rows.
	Delete(ctx context.Context, userID, documentID string) error
}

// Dependent is a store of rows hanging off a document.
type Dependent interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}
