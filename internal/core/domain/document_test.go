package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	now := time.Now()

	doc := Document{
		ID:         "doc-123",
		UserID:     "user-456",
		FileName:   "invoice.pdf",
		Summary:    "An invoice for consulting services.",
		Embedding:  VectorEmbedding([]float32{1, 2}),
		IndexedAt:  now,
		SourcePath: "user-456/invoice.pdf",
		CreatedAt:  now,
	}

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, "user-456", doc.UserID)
	assert.True(t, doc.HasEmbedding())
	assert.Equal(t, "invoice.pdf", doc.DisplayName())
	assert.Equal(t, now, doc.IndexedAt)
}

func TestDocument_HasEmbedding(t *testing.T) {
	assert.False(t, (&Document{}).HasEmbedding())
	assert.True(t, (&Document{Embedding: UnparseableEmbedding("x")}).HasEmbedding())
}

func TestDocument_DisplayNameUnknown(t *testing.T) {
	doc := Document{ID: "doc-1"}
	assert.Equal(t, "Unknown", doc.DisplayName())
}
