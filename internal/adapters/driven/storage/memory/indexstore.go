package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// Blobs are copied on the way in and out.
type IndexStore struct {
	mu    sync.RWMutex
	blobs map[string]map[string][]byte
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		blobs: make(map[string]map[string][]byte),
	}
}

// Put replaces the blob under userID/name.
func (s *IndexStore) Put(_ context.Context, userID, name string, data []byte) error {
	if userID == "" || name == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.blobs[userID]
	if !ok {
		ns = make(map[string][]byte)
		s.blobs[userID] = ns
	}
	ns[name] = append([]byte(nil), data...)
	return nil
}

// Get reads the blob under userID/name.
func (s *IndexStore) Get(_ context.Context, userID, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[userID][name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Has reports whether userID/name exists.
func (s *IndexStore) Has(_ context.Context, userID, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[userID][name]
	return ok, nil
}

// DeleteAll removes every blob in the user's namespace.
func (s *IndexStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, userID)
	return nil
}
