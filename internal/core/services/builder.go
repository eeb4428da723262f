package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/vectorindex"
)

// IndexBuilder turns a user's stored embeddings into a serialized index artifact.
type IndexBuilder struct {
	store driven.EmbeddingStore
}

// NewIndexBuilder creates a builder reading from the given store.
func NewIndexBuilder(store driven.EmbeddingStore) *IndexBuilder {
	return &IndexBuilder{store: store}
}

// BuildResult is the outcome of a successful build.
type BuildResult struct {
	// Artifact is the in-memory index and id map.
	Artifact *vectorindex.Artifact

	// Data is the encoded container ready for the index store.
	Data []byte

	// SkippedMalformed counts records whose embedding could not be used.
	SkippedMalformed int
}

// Build fetches every embedded document for the user and builds the artifact.
// Vectors keep fetch order, so position i of the index is the i-th usable record.
func (b *IndexBuilder) Build(ctx context.Context, userID string) (*BuildResult, error) {
	docs, err := b.store.FetchWithEmbedding(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}
	return buildArtifact(userID, docs)
}

// buildArtifact stacks usable embeddings. Unusable records are skipped;
// a vector whose length differs from the first fails the whole build.
func buildArtifact(userID string, docs []domain.Document) (*BuildResult, error) {
	ids := make([]string, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))
	skipped := 0
	dim := 0

	for i := range docs {
		doc := &docs[i]
		if !doc.Embedding.Usable() {
			skipped++
			logger.Warn("index: skipping document: %s", logger.Fields(
				"user", userID, "document", doc.ID, "embedding", doc.Embedding.Kind, "err", domain.ErrMalformedEmbedding))
			continue
		}
		values := doc.Embedding.Values
		if dim == 0 {
			dim = len(values)
		} else if len(values) != dim {
			return nil, fmt.Errorf("%w: document %s has %d dimensions, expected %d",
				domain.ErrMalformedEmbedding, doc.ID, len(values), dim)
		}
		ids = append(ids, doc.ID)
		vectors = append(vectors, values)
	}

	if len(vectors) == 0 {
		return nil, domain.ErrNoEmbeddings
	}

	artifact, err := vectorindex.NewArtifact(ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEmbedding, err)
	}
	data, err := artifact.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}

	return &BuildResult{
		Artifact:         artifact,
		Data:             data,
		SkippedMalformed: skipped,
	}, nil
}
