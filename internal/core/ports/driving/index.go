package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// IndexService manages the lifecycle of per-user similarity indexes.
type IndexService interface {
	// Rebuild embeds documents that lack an embedding, then rebuilds the
	// user's index from every stored embedding.
	Rebuild(ctx context.Context, userID string) (*domain.RebuildStats, error)

	// ForceRebuild rebuilds from existing embeddings without embedding
	// new documents.
	ForceRebuild(ctx context.Context, userID string) (*domain.RebuildStats, error)

	// RebuildAll rebuilds every user that owns documents and returns the
	// number of users whose rebuild succeeded.
	RebuildAll(ctx context.Context) (int, error)

	// HasIndex reports whether an index artifact exists for the user.
	HasIndex(ctx context.Context, userID string) (bool, error)

	// Status reports the user's indexing state.
	Status(ctx context.Context, userID string) (*domain.IndexStatus, error)
}
