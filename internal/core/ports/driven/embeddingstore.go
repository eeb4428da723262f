package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// EmbeddingStore persists document records and their embeddings.
// It is the single source of truth for which embeddings exist; index
// artifacts are rebuildable snapshots of it.
//
// Implementations normalise stored embeddings into domain.Embedding at the
// boundary, so callers never inspect raw storage formats.
type EmbeddingStore interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all of a user's documents in insertion order.
	List(ctx context.Context, userID string) ([]domain.Document, error)

	// FetchWithoutEmbedding returns the user's documents with no stored embedding.
	FetchWithoutEmbedding(ctx context.Context, userID string) ([]domain.Document, error)

	// FetchWithEmbedding returns the user's documents with any stored embedding,
	// including unparseable ones, in a stable fetch order.
	FetchWithEmbedding(ctx context.Context, userID string) ([]domain.Document, error)

	// UpdateEmbedding stores the vector for a document.
	// Returns domain.ErrNotFound if the document does not exist.
	UpdateEmbedding(ctx context.Context, id string, vector []float32) error

	// MarkIndexed sets indexed_at for the given documents.
	MarkIndexed(ctx context.Context, ids []string, at time.Time) error

	// FetchByIDs returns the documents that exist among ids, in no particular order.
	// Missing ids are silently omitted.
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Document, error)

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// ListUsers returns every user that owns at least one document.
	ListUsers(ctx context.Context) ([]string, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}
