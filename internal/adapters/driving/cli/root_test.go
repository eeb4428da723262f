package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/services"
)

func TestRootCmd_Flags(t *testing.T) {
	assert.Equal(t, "docrag", rootCmd.Use)
	for _, name := range []string{"verbose", "user", "data-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"index", "query", "documents", "ingest", "health", "config", "mcp", "console", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestBootstrap_BuildsServicesOnce(t *testing.T) {
	defer func() {
		SetServices(nil)
		SetBootstrap(nil)
		resetFlags()
	}()
	SetServices(nil)

	docs := memory.NewEmbeddingStore()
	var gotDir string
	closed := 0
	SetBootstrap(func(dir string) (*Services, func(), error) {
		gotDir = dir
		return &Services{
			Document: services.NewDocumentService(docs),
			Query:    services.NewQueryService(docs, memory.NewIndexStore(), nil, nil, nil, 0),
			Warnings: []string{"llm: not configured"},
		}, func() { closed++ }, nil
	})

	out, err := execute(t, "documents", "list", "--user", "u1", "--data-dir", "/tmp/docrag-x")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found for user: u1")
	assert.Equal(t, "/tmp/docrag-x", gotDir)
	assert.Equal(t, 1, closed)
}

func TestBootstrap_Error(t *testing.T) {
	defer func() {
		SetBootstrap(nil)
		resetFlags()
	}()
	SetServices(nil)
	SetBootstrap(func(string) (*Services, func(), error) {
		return nil, nil, errors.New("open store: disk full")
	})

	_, err := execute(t, "documents", "list", "--user", "u1")
	assert.EqualError(t, err, "open store: disk full")
}

func TestCommands_RequireServices(t *testing.T) {
	SetServices(nil)
	defer resetFlags()

	tests := [][]string{
		{"documents", "list", "--user", "u1"},
		{"index", "status", "--user", "u1"},
		{"query", "--user", "u1", "why?"},
		{"health"},
		{"config", "path"},
	}
	for _, args := range tests {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "not configured", args)
	}
}

func TestRequireUser(t *testing.T) {
	defer resetFlags()

	userID = "  "
	_, err := requireUser()
	assert.EqualError(t, err, "--user is required")

	userID = " alice "
	u, err := requireUser()
	require.NoError(t, err)
	assert.Equal(t, "alice", u)
}
