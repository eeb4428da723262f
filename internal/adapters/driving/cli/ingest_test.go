package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd_Flags(t *testing.T) {
	assert.Equal(t, "ingest [dir]", ingestCmd.Use)
	assert.NotNil(t, ingestCmd.Flags().Lookup("manifest"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("watch"))
}

func TestIngest_Directory(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("Revenue notes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("binary"), 0644))

	out, err := execute(t, "ingest", dir, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 added, 0 updated, 0 unchanged, 0 removed, 0 skipped")
	assert.Contains(t, out, "docrag index rebuild")

	docs, err := env.docs.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.md", docs[0].FileName)

	out, err = execute(t, "ingest", dir, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 added, 0 updated, 1 unchanged")
}

func TestIngest_Manifest(t *testing.T) {
	env := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "documents.yaml")
	manifest := "- user_id: alice\n  summary: Revenue grew\n- summary: Holiday schedule\n  file_name: h.txt\n"
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))

	out, err := execute(t, "ingest", "--manifest", path, "--user", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 documents")

	alice, err := env.docs.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 1)
	bob, err := env.docs.List(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "h.txt", bob[0].FileName)
}

func TestIngest_Errors(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "ingest", "--user", "u1")
	assert.EqualError(t, err, "a directory or --manifest is required")

	resetFlags()
	_, err = execute(t, "ingest", t.TempDir())
	assert.EqualError(t, err, "--user is required")

	_, err = execute(t, "ingest", t.TempDir(), "--manifest", "m.yaml", "--user", "u1")
	assert.EqualError(t, err, "--manifest cannot be combined with a directory or --watch")
}
