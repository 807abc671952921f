package extraction

import (
	"context"
	"time"
)

// Repo persists extracted records, at most one per document.
type Repo interface {
	// Create inserts rec. It returns ErrAlreadyExists when the document
	// already has a record.
	Create(ctx context.Context, rec ExtractedData) error
	GetByDocument(ctx context.Context, documentID string) (ExtractedData, error)
	// Update writes only the fields present in p and always refreshes updated_at.
	Update(ctx context.Context, documentID string, p Patch, now time.Time) (ExtractedData, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
