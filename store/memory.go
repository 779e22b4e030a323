package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/TFMV/cognilink/models"
)

// MemoryStore keeps records in a map. Records are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*models.GraphRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*models.GraphRecord)}
}

// Put stores a copy of rec
func (s *MemoryStore) Put(_ context.Context, rec *models.GraphRecord) (string, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.graphs[id] = clone(rec)
	s.mu.Unlock()
	return id, nil
}

// Get returns a copy of the record stored under id
func (s *MemoryStore) Get(_ context.Context, id string) (*models.GraphRecord, error) {
	s.mu.RLock()
	rec, ok := s.graphs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(rec), nil
}

// Len returns the number of stored graphs
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graphs)
}
