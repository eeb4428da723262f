package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docrag-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// insertRawEmbedding writes a document whose embedding column holds text,
// the way externally written rows store it.
func insertRawEmbedding(t *testing.T, store *Store, id, userID string, embedding any) {
	t.Helper()
	_, err := store.db.Exec(`
		INSERT INTO documents (id, user_id, summary, embedding, created_at)
		VALUES (?, ?, 'raw', ?, ?)
	`, id, userID, embedding, formatTime(time.Now()))
	require.NoError(t, err)
}

func saveDoc(t *testing.T, store *Store, doc domain.Document) {
	t.Helper()
	require.NoError(t, store.EmbeddingStore().Save(context.Background(), &doc))
}

// ==================== Store Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, dbFileName, filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	require.NoError(t, err)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	saveDoc(t, store, domain.Document{ID: "a", UserID: "u1", Summary: "kept"})
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	doc, err := store.EmbeddingStore().Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "kept", doc.Summary)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

// ==================== Embedding Store Tests ====================

func TestEmbeddingStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	created := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	saveDoc(t, store, domain.Document{
		ID:         "doc-1",
		UserID:     "u1",
		FileName:   "report.pdf",
		Summary:    "revenue grew",
		SourcePath: "/uploads/report.pdf",
		CreatedAt:  created,
	})

	doc, err := store.EmbeddingStore().Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, "report.pdf", doc.FileName)
	assert.Equal(t, "revenue grew", doc.Summary)
	assert.Equal(t, "/uploads/report.pdf", doc.SourcePath)
	assert.Equal(t, created, doc.CreatedAt)
	assert.Equal(t, domain.EmbeddingAbsent, doc.Embedding.Kind)
	assert.True(t, doc.IndexedAt.IsZero())
}

func TestEmbeddingStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.EmbeddingStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmbeddingStore_Save_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.EmbeddingStore().Save(context.Background(), &domain.Document{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEmbeddingStore_VectorRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	saveDoc(t, store, domain.Document{ID: "a", UserID: "u1", Summary: "s"})
	require.NoError(t, store.EmbeddingStore().UpdateEmbedding(ctx, "a", []float32{0.5, -1.25, 3}))

	doc, err := store.EmbeddingStore().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingVector, doc.Embedding.Kind)
	assert.Equal(t, []float32{0.5, -1.25, 3}, doc.Embedding.Values)
}

func TestEmbeddingStore_UpdateEmbedding_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.EmbeddingStore().UpdateEmbedding(context.Background(), "missing", []float32{1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmbeddingStore_NormalisesTextualEmbeddings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	insertRawEmbedding(t, store, "json", "u1", "[0.1, 0.2, 0.3]")
	insertRawEmbedding(t, store, "tuple", "u1", "(1, 2, 3)")
	insertRawEmbedding(t, store, "broken", "u1", "not-a-vector")
	insertRawEmbedding(t, store, "short-blob", "u1", []byte{1, 2, 3})

	docs, err := store.EmbeddingStore().FetchWithEmbedding(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, docs, 4)

	assert.Equal(t, domain.EmbeddingVector, docs[0].Embedding.Kind)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, docs[0].Embedding.Values, 1e-6)

	assert.Equal(t, domain.EmbeddingVector, docs[1].Embedding.Kind)
	assert.Equal(t, []float32{1, 2, 3}, docs[1].Embedding.Values)

	assert.Equal(t, domain.EmbeddingUnparseable, docs[2].Embedding.Kind)
	assert.Equal(t, "not-a-vector", docs[2].Embedding.Raw)

	assert.Equal(t, domain.EmbeddingUnparseable, docs[3].Embedding.Kind)
}

func TestEmbeddingStore_FetchWithAndWithoutEmbedding(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	es := store.EmbeddingStore()

	saveDoc(t, store, domain.Document{ID: "a", UserID: "u1", Summary: "a", Embedding: domain.VectorEmbedding([]float32{1})})
	saveDoc(t, store, domain.Document{ID: "b", UserID: "u1", Summary: "b"})
	saveDoc(t, store, domain.Document{ID: "c", UserID: "u1", Summary: "c", Embedding: domain.VectorEmbedding([]float32{2})})
	saveDoc(t, store, domain.Document{ID: "d", UserID: "u2", Summary: "d"})

	with, err := es.FetchWithEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, with, 2)
	assert.Equal(t, "a", with[0].ID)
	assert.Equal(t, "c", with[1].ID)

	without, err := es.FetchWithoutEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, without, 1)
	assert.Equal(t, "b", without[0].ID)
}

func TestEmbeddingStore_SaveUnparseableStaysEmbedded(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	saveDoc(t, store, domain.Document{ID: "x", UserID: "u1", Embedding: domain.UnparseableEmbedding("")})

	with, err := store.EmbeddingStore().FetchWithEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, domain.EmbeddingUnparseable, with[0].Embedding.Kind)
}

func TestEmbeddingStore_TextualAbsentCountsAsWithout(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	es := store.EmbeddingStore()

	insertRawEmbedding(t, store, "json-null", "u1", "null")
	insertRawEmbedding(t, store, "empty", "u1", "")
	insertRawEmbedding(t, store, "padded", "u1", "  ")
	insertRawEmbedding(t, store, "vec", "u1", "[1, 2]")

	without, err := es.FetchWithoutEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, without, 3)
	for _, doc := range without {
		assert.Equal(t, domain.EmbeddingAbsent, doc.Embedding.Kind, doc.ID)
	}

	with, err := es.FetchWithEmbedding(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, "vec", with[0].ID)

	// Re-embedding a textual-absent row moves it across.
	require.NoError(t, es.UpdateEmbedding(ctx, "json-null", []float32{3, 4}))
	with, err = es.FetchWithEmbedding(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, with, 2)
}

func TestEmbeddingStore_SaveUnparseableNullStaysEmbedded(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	saveDoc(t, store, domain.Document{ID: "x", UserID: "u1", Embedding: domain.UnparseableEmbedding("null")})

	with, err := store.EmbeddingStore().FetchWithEmbedding(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, domain.EmbeddingUnparseable, with[0].Embedding.Kind)
}

func TestEmbeddingStore_MarkIndexed(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	es := store.EmbeddingStore()

	saveDoc(t, store, domain.Document{ID: "a", UserID: "u1"})
	saveDoc(t, store, domain.Document{ID: "b", UserID: "u1"})

	at := time.Date(2026, 6, 7, 8, 9, 10, 11, time.UTC)
	require.NoError(t, es.MarkIndexed(ctx, []string{"a", "missing"}, at))
	require.NoError(t, es.MarkIndexed(ctx, nil, at))

	a, err := es.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, at, a.IndexedAt)

	b, err := es.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, b.IndexedAt.IsZero())
}

func TestEmbeddingStore_FetchByIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	saveDoc(t, store, domain.Document{ID: "a", UserID: "u1"})
	saveDoc(t, store, domain.Document{ID: "b", UserID: "u2"})

	docs, err := store.EmbeddingStore().FetchByIDs(context.Background(), []string{"a", "missing", "b"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := map[string]string{}
	for _, d := range docs {
		byID[d.ID] = d.UserID
	}
	assert.Equal(t, map[string]string{"a": "u1", "b": "u2"}, byID)
}

func TestEmbeddingStore_FetchByIDs_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs, err := store.EmbeddingStore().FetchByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEmbeddingStore_DeleteAndListUsers(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	es := store.EmbeddingStore()

	saveDoc(t, store, domain.Document{ID: "a", UserID: "zed"})
	saveDoc(t, store, domain.Document{ID: "b", UserID: "amy"})
	saveDoc(t, store, domain.Document{ID: "c", UserID: "zed"})

	users, err := es.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, users)

	require.NoError(t, es.Delete(ctx, "b"))
	require.NoError(t, es.Delete(ctx, "b"))

	users, err = es.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zed"}, users)

	docs, err := es.List(ctx, "zed")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
}

func TestEmbeddingStore_Ping(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.EmbeddingStore().Ping(context.Background()))
}

// ==================== Index Store Tests ====================

func TestIndexStore_PutGetHas(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	is := store.IndexStore()

	ok, err := is.Has(ctx, "u1", "index.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = is.Get(ctx, "u1", "index.bin")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, is.Put(ctx, "u1", "index.bin", []byte("first")))
	require.NoError(t, is.Put(ctx, "u1", "index.bin", []byte("second")))

	data, err := is.Get(ctx, "u1", "index.bin")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	ok, err = is.Has(ctx, "u1", "index.bin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIndexStore_Put_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.IndexStore().Put(context.Background(), "", "index.bin", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexStore_DeleteAll_UserIsolation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	is := store.IndexStore()

	require.NoError(t, is.Put(ctx, "u1", "index.bin", []byte("a")))
	require.NoError(t, is.Put(ctx, "u1", "other.bin", []byte("b")))
	require.NoError(t, is.Put(ctx, "u2", "index.bin", []byte("c")))

	require.NoError(t, is.DeleteAll(ctx, "u1"))
	require.NoError(t, is.DeleteAll(ctx, "u1"))

	ok, _ := is.Has(ctx, "u1", "index.bin")
	assert.False(t, ok)
	ok, _ = is.Has(ctx, "u1", "other.bin")
	assert.False(t, ok)
	ok, _ = is.Has(ctx, "u2", "index.bin")
	assert.True(t, ok)
}

// ==================== Helper Function Tests ====================

func TestFloat32Conversion(t *testing.T) {
	in := []float32{1.5, -2, 0}
	out, ok := bytesToFloat32Slice(float32SliceToBytes(in))
	require.True(t, ok)
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	_, ok = bytesToFloat32Slice([]byte{1, 2})
	assert.False(t, ok)
}

func TestDecodeEmbedding(t *testing.T) {
	assert.Equal(t, domain.EmbeddingAbsent, decodeEmbedding(nil).Kind)
	assert.Equal(t, domain.EmbeddingVector, decodeEmbedding(float32SliceToBytes([]float32{1})).Kind)
	assert.Equal(t, domain.EmbeddingVector, decodeEmbedding("[1, 2]").Kind)
	assert.Equal(t, domain.EmbeddingUnparseable, decodeEmbedding("{}").Kind)
	assert.Equal(t, domain.EmbeddingUnparseable, decodeEmbedding(int64(4)).Kind)
}
