package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/vectorindex"
)

// IndexSession holds one user's loaded index and id map.
// It starts empty and becomes loaded after a successful Load.
type IndexSession struct {
	store driven.IndexStore

	mu       sync.RWMutex
	userID   string
	artifact *vectorindex.Artifact
}

// NewIndexSession creates an empty session reading from the given store.
func NewIndexSession(store driven.IndexStore) *IndexSession {
	return &IndexSession{store: store}
}

// SearchHit is one neighbour resolved to a document id.
type SearchHit struct {
	// Position is the vector's position in the index.
	Position int

	// DocumentID is the id map entry for Position.
	DocumentID string

	// Distance is the squared L2 distance to the query.
	Distance float32

	// Score is the relative similarity derived from Distance.
	Score float64
}

// HasIndex reports whether an index artifact exists for the user.
func (s *IndexSession) HasIndex(ctx context.Context, userID string) (bool, error) {
	ok, err := s.store.Has(ctx, userID, driven.BlobIndexArtifact)
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	return ok, nil
}

// Load fetches and decodes the user's artifact, then installs it.
// On any failure the previously loaded state is kept.
func (s *IndexSession) Load(ctx context.Context, userID string) error {
	data, err := s.store.Get(ctx, userID, driven.BlobIndexArtifact)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %w: user %s", domain.ErrLoadFailure, domain.ErrIndexNotFound, userID)
		}
		return fmt.Errorf("%w: fetch index for user %s: %w", domain.ErrLoadFailure, userID, err)
	}

	artifact, err := vectorindex.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: decode index for user %s: %w", domain.ErrLoadFailure, userID, err)
	}

	s.mu.Lock()
	s.userID = userID
	s.artifact = artifact
	s.mu.Unlock()
	return nil
}

// Loaded reports whether an index is installed.
func (s *IndexSession) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// UserID returns the owner of the loaded index, or "" when empty.
func (s *IndexSession) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Len returns the number of indexed vectors, or 0 when empty.
func (s *IndexSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return 0
	}
	return s.artifact.Index.Len()
}

// Search returns up to k hits ordered by ascending distance.
// Padding positions from the index are dropped, so fewer than k hits
// are returned when the index is small.
func (s *IndexSession) Search(query []float32, k int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.artifact == nil {
		return nil, domain.ErrIndexNotLoaded
	}

	positions, distances, err := s.artifact.Index.Search(query, k)
	if err != nil {
		if errors.Is(err, vectorindex.ErrDimension) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSearchDimensionMismatch, err)
		}
		return nil, err
	}

	hits := make([]SearchHit, 0, len(positions))
	for i, pos := range positions {
		id, ok := s.artifact.ID(pos)
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Position:   pos,
			DocumentID: id,
			Distance:   distances[i],
			Score:      domain.SimilarityScore(distances[i]),
		})
	}
	return hits, nil
}

// Retriever resolves search hits into the user's document records.
type Retriever struct {
	docs driven.EmbeddingStore
}

// NewRetriever creates a retriever backed by the embedding store.
func NewRetriever(docs driven.EmbeddingStore) *Retriever {
	return &Retriever{docs: docs}
}

// Retrieve fetches the documents named by hits and keeps rank order.
// Records owned by another user and ids that no longer exist are dropped.
func (r *Retriever) Retrieve(ctx context.Context, userID string, hits []SearchHit) ([]domain.RetrievedDocument, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.DocumentID
	}
	docs, err := r.docs.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	byID := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		if d.UserID != userID {
			continue
		}
		byID[d.ID] = d
	}

	out := make([]domain.RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		doc, ok := byID[h.DocumentID]
		if !ok {
			continue
		}
		out = append(out, domain.RetrievedDocument{
			Document: doc,
			Distance: h.Distance,
			Score:    h.Score,
		})
	}
	return out, nil
}
