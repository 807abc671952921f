package chat

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	data []Message // insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, msg)
	return nil
}

// chronological returns matching exchanges oldest first. Insertion order
// breaks timestamp ties.
func (r *MemoryRepo) chronological(documentID, userID string) []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Message
	for _, m := range r.data {
		if m.DocumentID == documentID && m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRepo) Recent(ctx context.Context, documentID, userID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := r.chronological(documentID, userID)
	if limit <= 0 {
		return []Message{}, nil
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *MemoryRepo) History(ctx context.Context, documentID, userID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := r.chronological(documentID, userID)
	out := make([]Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.data[:0]
	for _, m := range r.data {
		if m.DocumentID != documentID {
			kept = append(kept, m)
		}
	}
	r.data = kept
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
