package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

func TestNewDocumentService(t *testing.T) {
	svc := NewDocumentService(memory.NewEmbeddingStore())
	require.NotNil(t, svc)
}

func TestDocumentService_Add(t *testing.T) {
	store := memory.NewEmbeddingStore()
	svc := NewDocumentService(store)
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	doc, err := svc.Add(context.Background(), driving.NewDocument{
		UserID:     "u1",
		FileName:   "notes.md",
		Summary:    "meeting notes",
		SourcePath: "/data/notes.md",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixed, doc.CreatedAt)
	assert.False(t, doc.HasEmbedding())

	stored, err := store.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", stored.Summary)
	assert.Equal(t, "/data/notes.md", stored.SourcePath)
}

func TestDocumentService_Add_Validation(t *testing.T) {
	svc := NewDocumentService(memory.NewEmbeddingStore())
	ctx := context.Background()

	_, err := svc.Add(ctx, driving.NewDocument{Summary: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Add(ctx, driving.NewDocument{UserID: "u1", Summary: " \n"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Get_UserScoped(t *testing.T) {
	svc := NewDocumentService(memory.NewEmbeddingStore())
	ctx := context.Background()
	doc, err := svc.Add(ctx, driving.NewDocument{UserID: "u1", Summary: "mine"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = svc.Get(ctx, "u2", doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_List(t *testing.T) {
	svc := NewDocumentService(memory.NewEmbeddingStore())
	ctx := context.Background()
	_, err := svc.Add(ctx, driving.NewDocument{UserID: "u1", Summary: "one"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, driving.NewDocument{UserID: "u1", Summary: "two"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, driving.NewDocument{UserID: "u2", Summary: "other"})
	require.NoError(t, err)

	docs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "one", docs[0].Summary)

	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Delete_UserScoped(t *testing.T) {
	store := memory.NewEmbeddingStore()
	svc := NewDocumentService(store)
	ctx := context.Background()
	doc, err := svc.Add(ctx, driving.NewDocument{UserID: "u1", Summary: "mine"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "u2", doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", doc.ID))
	_, err = store.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
