package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // documentID -> document

	// Children are cleared when a document is deleted.
	Children []Dependent
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(children ...Dependent) *MemoryRepo {
	return &MemoryRepo{
		data:     make(map[string]Document),
		Children: children,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[doc.ID]; ok {
		return ErrInvalidInput
	}
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, f ListFilter) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	r.mu.RLock()
	var matched []Document
	for _, doc := range r.data {
		if doc.UserID != userID {
			continue
		}
		if f.FileType != "" && doc.FileType != f.FileType {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(doc.OriginalFilename), query) {
			continue
		}
		matched = append(matched, doc)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})

	total := len(matched)
	if f.Offset >= total {
		return []Document{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, userID, documentID, status string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	doc.Status = status
	r.data[documentID] = doc
	return doc, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	for _, child := range r.Children {
		if err := child.DeleteByDocument(ctx, documentID); err != nil {
			return err
		}
	}
	delete(r.data, documentID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
