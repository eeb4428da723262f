package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "docrag.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docrag/data/docrag.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL lets queries read while a rebuild writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// IndexStore returns an IndexStore interface backed by this store.
func (s *Store) IndexStore() driven.IndexStore {
	return &indexStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations. Each migration records its own
// version in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

const documentColumns = `id, user_id, file_name, summary, source_path, embedding, indexed_at, created_at`

// Save stores or updates a document. A usable embedding is written as a
// float32 BLOB; an absent one leaves the column NULL.
func (s *embeddingStore) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	var embedding any
	switch doc.Embedding.Kind {
	case domain.EmbeddingVector:
		embedding = float32SliceToBytes(doc.Embedding.Values)
	case domain.EmbeddingUnparseable:
		embedding = doc.Embedding.Raw
		// Raw text that reads back as absent would lose the unparseable tag.
		if domain.ParseEmbedding(doc.Embedding.Raw).Kind == domain.EmbeddingAbsent {
			embedding = "[]"
		}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, file_name, summary, source_path, embedding, indexed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			file_name = excluded.file_name,
			summary = excluded.summary,
			source_path = excluded.source_path,
			embedding = excluded.embedding,
			indexed_at = excluded.indexed_at
	`, doc.ID, doc.UserID, doc.FileName, doc.Summary, doc.SourcePath,
		embedding, formatNullableTime(doc.IndexedAt), formatTime(doc.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *embeddingStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// List returns all of a user's documents in insertion order.
func (s *embeddingStore) List(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = ? ORDER BY seq`, userID)
}

// FetchWithoutEmbedding returns the user's documents whose stored embedding
// decodes as absent: NULL, empty text or a JSON null.
func (s *embeddingStore) FetchWithoutEmbedding(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.fetchByPresence(ctx, userID, false)
}

// FetchWithEmbedding returns the user's documents with any stored embedding,
// including unparseable ones the index builder skips.
func (s *embeddingStore) FetchWithEmbedding(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.fetchByPresence(ctx, userID, true)
}

// fetchByPresence splits on the decoded kind rather than on SQL NULL so the
// textual absent forms land with the documents still to be embedded.
func (s *embeddingStore) fetchByPresence(ctx context.Context, userID string, present bool) ([]domain.Document, error) {
	docs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for i := range docs {
		if docs[i].HasEmbedding() == present {
			out = append(out, docs[i])
		}
	}
	return out, nil
}

// UpdateEmbedding stores the vector for a document.
func (s *embeddingStore) UpdateEmbedding(ctx context.Context, id string, vector []float32) error {
	res, err := s.store.db.ExecContext(ctx,
		`UPDATE documents SET embedding = ? WHERE id = ?`, float32SliceToBytes(vector), id)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkIndexed sets indexed_at for the given documents in one transaction.
func (s *embeddingStore) MarkIndexed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `UPDATE documents SET indexed_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	stamp := formatTime(at)
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, stamp, id); err != nil {
			return fmt.Errorf("marking document %s indexed: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// fetchBatch bounds the number of placeholders per IN query.
const fetchBatch = 500

// FetchByIDs returns the documents that exist among ids.
func (s *embeddingStore) FetchByIDs(ctx context.Context, ids []string) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(ids))
	for start := 0; start < len(ids); start += fetchBatch {
		end := min(start+fetchBatch, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		docs, err := s.query(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

// Delete removes a document.
func (s *embeddingStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListUsers returns every user that owns a document.
func (s *embeddingStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM documents ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Ping runs a trivial query.
func (s *embeddingStore) Ping(ctx context.Context) error {
	var one int
	if err := s.store.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

func (s *embeddingStore) query(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ==================== Index Store ====================

// indexStore implements driven.IndexStore. Each blob is a single row, so
// Put replaces it atomically.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Put upserts the blob under userID/name.
func (s *indexStore) Put(ctx context.Context, userID, name string, data []byte) error {
	if userID == "" || name == "" {
		return domain.ErrInvalidInput
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_blobs (user_id, name, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, userID, name, data, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving index blob: %w", err)
	}
	return nil
}

// Get reads the blob under userID/name.
func (s *indexStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx,
		`SELECT data FROM index_blobs WHERE user_id = ? AND name = ?`, userID, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading index blob: %w", err)
	}
	return data, nil
}

// Has reports whether userID/name exists.
func (s *indexStore) Has(ctx context.Context, userID, name string) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_blobs WHERE user_id = ? AND name = ?`, userID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking index blob: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every blob in the user's namespace.
func (s *indexStore) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM index_blobs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting index blobs: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
// It returns false when the length is not a multiple of four.
func bytesToFloat32Slice(data []byte) ([]float32, bool) {
	if len(data)%4 != 0 {
		return nil, false
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, true
}

// decodeEmbedding normalises the stored column into the tagged variant.
// BLOBs are float32 vectors; text is the JSON or tuple textual form.
func decodeEmbedding(value any) domain.Embedding {
	switch v := value.(type) {
	case nil:
		return domain.Embedding{}
	case []byte:
		floats, ok := bytesToFloat32Slice(v)
		if !ok {
			return domain.UnparseableEmbedding(fmt.Sprintf("<%d byte blob>", len(v)))
		}
		return domain.VectorEmbedding(floats)
	case string:
		return domain.ParseEmbedding(v)
	default:
		return domain.UnparseableEmbedding(fmt.Sprint(v))
	}
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var embedding any
	var indexedAt sql.NullString
	var createdAt string

	if err := row.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.Summary, &doc.SourcePath,
		&embedding, &indexedAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Embedding = decodeEmbedding(embedding)
	doc.IndexedAt = parseNullableTime(indexedAt)
	doc.CreatedAt = parseTime(createdAt)
	return &doc, nil
}

// formatTime formats a time as UTC RFC3339 with nanoseconds.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored timestamp, returning zero time when invalid.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable timestamp.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
