package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
)

// fakeEmbedder maps text onto a small deterministic vector.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "revenue")),
		float32(strings.Count(lower, "holiday")),
		1,
	}, nil
}

func (fakeEmbedder) Dimensions() int              { return 3 }
func (fakeEmbedder) ModelName() string            { return "fake-embed" }
func (fakeEmbedder) Ping(_ context.Context) error { return nil }
func (fakeEmbedder) Close() error                 { return nil }

// fakeLLM echoes the prompt length so tests can see a completion happened.
type fakeLLM struct {
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return "Generated answer.", nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

type testServices struct {
	docs  *memory.EmbeddingStore
	index *memory.IndexStore
	llm   *fakeLLM
}

// setupTestServices installs services backed by memory stores and fakes.
// The returned function restores the previous globals and resets flags.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	docs := memory.NewEmbeddingStore()
	index := memory.NewIndexStore()
	llm := &fakeLLM{}
	embedder := fakeEmbedder{}

	indexer := services.NewIndexService(docs, index, embedder, domain.RebuildSettings{})
	SetServices(&Services{
		Document:     services.NewDocumentService(docs),
		Index:        indexer,
		Query:        services.NewQueryService(docs, index, embedder, llm, nil, 2),
		Health:       services.NewHealthService(docs, index, embedder, llm),
		QueryTimeout: time.Minute,
	})

	oldBootstrap := bootstrap
	bootstrap = nil

	t.Cleanup(func() {
		SetServices(nil)
		bootstrap = oldBootstrap
		resetFlags()
	})

	return &testServices{docs: docs, index: index, llm: llm}
}

// seedDocuments adds documents for a user through the document service.
func seedDocuments(t *testing.T, user string, summaries ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(summaries))
	for i, summary := range summaries {
		doc, err := documentService.Add(context.Background(), driving.NewDocument{
			UserID:   user,
			FileName: "doc" + string(rune('a'+i)) + ".txt",
			Summary:  summary,
		})
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}
	return ids
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := Execute(context.Background())
	return buf.String(), err
}

func resetFlags() {
	verbose = false
	userID = ""
	dataDir = ""
	indexForce = false
	indexAll = false
	indexJSON = false
	indexRuns = 5
	queryJSON = false
	healthJSON = false
	docFileName = ""
	docSummary = ""
	docSummaryFile = ""
	docSourcePath = ""
	ingestManifest = ""
	ingestWatch = false
}
