package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure EmbeddingStore implements the interface.
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore is an in-memory implementation of driven.EmbeddingStore.
// Documents are returned in insertion order.
type EmbeddingStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	order     []string
}

// NewEmbeddingStore creates a new in-memory embedding store.
func NewEmbeddingStore() *EmbeddingStore {
	return &EmbeddingStore{
		documents: make(map[string]domain.Document),
	}
}

// Save stores or updates a document.
func (s *EmbeddingStore) Save(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.documents[doc.ID] = copyDocument(*doc)
	return nil
}

// Get retrieves a document by ID.
func (s *EmbeddingStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = copyDocument(doc)
	return &doc, nil
}

// List returns all of a user's documents.
func (s *EmbeddingStore) List(_ context.Context, userID string) ([]domain.Document, error) {
	return s.filter(func(d *domain.Document) bool {
		return d.UserID == userID
	}), nil
}

// FetchWithoutEmbedding returns the user's documents with no stored embedding.
func (s *EmbeddingStore) FetchWithoutEmbedding(_ context.Context, userID string) ([]domain.Document, error) {
	return s.filter(func(d *domain.Document) bool {
		return d.UserID == userID && !d.HasEmbedding()
	}), nil
}

// FetchWithEmbedding returns the user's documents with any stored embedding.
func (s *EmbeddingStore) FetchWithEmbedding(_ context.Context, userID string) ([]domain.Document, error) {
	return s.filter(func(d *domain.Document) bool {
		return d.UserID == userID && d.HasEmbedding()
	}), nil
}

// UpdateEmbedding stores the vector for a document.
func (s *EmbeddingStore) UpdateEmbedding(_ context.Context, id string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Embedding = domain.VectorEmbedding(append([]float32(nil), vector...))
	s.documents[id] = doc
	return nil
}

// MarkIndexed sets indexed_at for the given documents. Unknown ids are ignored.
func (s *EmbeddingStore) MarkIndexed(_ context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		doc, ok := s.documents[id]
		if !ok {
			continue
		}
		doc.IndexedAt = at
		s.documents[id] = doc
	}
	return nil
}

// FetchByIDs returns the documents that exist among ids.
func (s *EmbeddingStore) FetchByIDs(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if doc, ok := s.documents[id]; ok {
			out = append(out, copyDocument(doc))
		}
	}
	return out, nil
}

// Delete removes a document.
func (s *EmbeddingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return nil
	}
	delete(s.documents, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListUsers returns every user that owns a document, sorted.
func (s *EmbeddingStore) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	users := make([]string, 0)
	for _, doc := range s.documents {
		if !seen[doc.UserID] {
			seen[doc.UserID] = true
			users = append(users, doc.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

// Ping always succeeds.
func (s *EmbeddingStore) Ping(_ context.Context) error {
	return nil
}

func (s *EmbeddingStore) filter(keep func(*domain.Document) bool) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0)
	for _, id := range s.order {
		doc := s.documents[id]
		if keep(&doc) {
			out = append(out, copyDocument(doc))
		}
	}
	return out
}

// copyDocument detaches the embedding slice from the stored value.
func copyDocument(doc domain.Document) domain.Document {
	if doc.Embedding.Values != nil {
		doc.Embedding.Values = append([]float32(nil), doc.Embedding.Values...)
	}
	return doc
}
