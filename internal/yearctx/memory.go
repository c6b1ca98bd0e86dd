package yearctx

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for deployments without redis. The
// selection survives the process, not a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	years map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{years: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	year, ok := s.years[userID]
	if !ok {
		return "", ErrNotFound
	}
	return year, nil
}

func (s *MemoryStore) Save(_ context.Context, userID, year string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[userID] = year
	return nil
}
