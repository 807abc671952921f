package extraction

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]ExtractedData // documentID -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]ExtractedData)}
}

func (r *MemoryRepo) Create(ctx context.Context, rec ExtractedData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[rec.DocumentID]; ok {
		return ErrAlreadyExists
	}
	r.data[rec.DocumentID] = stored
	return nil
}

func (r *MemoryRepo) GetByDocument(ctx context.Context, documentID string) (ExtractedData, error) {
	if err := ctx.Err(); err != nil {
		return ExtractedData{}, err
	}
	r.mu.RLock()
	rec, ok := r.data[documentID]
	r.mu.RUnlock()
	if !ok {
		return ExtractedData{}, ErrNotFound
	}
	return cloneRecord(rec)
}

func (r *MemoryRepo) Update(ctx context.Context, documentID string, p Patch, now time.Time) (ExtractedData, error) {
	if err := ctx.Err(); err != nil {
		return ExtractedData{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[documentID]
	if !ok {
		return ExtractedData{}, ErrNotFound
	}
	p.apply(&rec.Fields)
	rec.UpdatedAt = now
	stored, err := cloneRecord(rec)
	if err != nil {
		return ExtractedData{}, err
	}
	r.data[documentID] = stored
	return cloneRecord(stored)
}

func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

// cloneRecord deep-copies through JSON so callers never share nested values
// with the store, the same way a database round trip would.
func cloneRecord(rec ExtractedData) (ExtractedData, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return ExtractedData{}, err
	}
	var out ExtractedData
	if err := json.Unmarshal(payload, &out); err != nil {
		return ExtractedData{}, err
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
