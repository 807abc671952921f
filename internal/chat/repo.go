package chat

import "context"

// Repo stores chat exchanges. Exchanges are immutable once created.
type Repo interface {
	Create(ctx context.Context, msg Message) error
	// Recent returns at most limit of the latest exchanges for a document and
	// user, oldest first.
	Recent(ctx context.Context, documentID, userID string, limit int) ([]Message, error)
	// History returns every exchange for a document and user, newest first.
	History(ctx context.Context, documentID, userID string) ([]Message, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
