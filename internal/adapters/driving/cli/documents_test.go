package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range documentsCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"add", "list", "get", "delete"}, names)
}

func TestDocumentsAdd(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "documents", "add", "--user", "u1",
		"--file-name", "q3.pdf", "--summary", "Revenue grew 12%", "--source-path", "/uploads/q3.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "Document added:")
	assert.Contains(t, out, "docrag index rebuild")

	docs, err := env.docs.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "q3.pdf", docs[0].FileName)
	assert.Equal(t, "/uploads/q3.pdf", docs[0].SourcePath)
}

func TestDocumentsAdd_SummaryFile(t *testing.T) {
	env := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "summary.txt")
	require.NoError(t, os.WriteFile(path, []byte("Holiday schedule"), 0644))

	_, err := execute(t, "documents", "add", "--user", "u1", "--summary-file", path)
	require.NoError(t, err)

	docs, err := env.docs.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Holiday schedule", docs[0].Summary)
}

func TestDocumentsAdd_Errors(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "documents", "add", "--summary", "x")
	assert.EqualError(t, err, "--user is required")

	_, err = execute(t, "documents", "add", "--user", "u1", "--summary", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")

	resetFlags()
	_, err = execute(t, "documents", "add", "--user", "u1", "--summary", "a", "--summary-file", "b")
	assert.EqualError(t, err, "use either --summary or --summary-file")
}

func TestDocumentsListGetDelete(t *testing.T) {
	setupTestServices(t)
	ids := seedDocuments(t, "u1", "Revenue grew", "Holiday schedule")
	seedDocuments(t, "u2", "Not yours")

	out, err := execute(t, "documents", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, ids[1])
	assert.Contains(t, out, "Total: 2 documents")
	assert.Contains(t, out, "Embedded: false")

	out, err = execute(t, "documents", "get", ids[0], "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "File:      doca.txt")
	assert.Contains(t, out, "Indexed:   never")
	assert.Contains(t, out, "Revenue grew")

	_, err = execute(t, "documents", "get", ids[0], "--user", "u2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = execute(t, "documents", "delete", ids[0], "--user", "u2")
	require.Error(t, err)

	out, err = execute(t, "documents", "delete", ids[0], "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = execute(t, "documents", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentsGet_RequiresArg(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, "documents", "get", "--user", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
