package auth

import (
	"sync"
	"time"
)

// stateStore tracks OAuth state values between start and callback. Each value
// is accepted once; expired values are dropped whenever a new one is issued.
type stateStore struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]time.Time
}

func newStateStore(now func() time.Time) *stateStore {
	return &stateStore{now: now, items: make(map[string]time.Time)}
}

func (s *stateStore) issue(ttl time.Duration) string {
	state := newState()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(ttl)
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	if !ok {
		return false
	}
	delete(s.items, state)
	return !s.now().After(exp)
}

func (s *stateStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
