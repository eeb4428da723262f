package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// --- Fakes shared by the service tests ---

// fakeEmbedder returns fixed vectors per text. Texts listed in failures
// fail that many times before succeeding.
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	failures map[string]int
	err      error
	calls    []string
	pingErr  error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors:  make(map[string][]float32),
		failures: make(map[string]int),
		err:      errors.New("embedding backend unavailable"),
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.failures[text] > 0 {
		f.failures[text]--
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return nil, f.err
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEmbedder) Dimensions() int {
	return 4
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-embed"
}

func (f *fakeEmbedder) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeEmbedder) Close() error {
	return nil
}

// fakeLLM records prompts and returns a canned answer.
type fakeLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
	pingErr error
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) ModelName() string {
	return "fake-llm"
}

func (f *fakeLLM) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeLLM) Close() error {
	return nil
}

// fakePrompts serves a fixed template.
type fakePrompts struct {
	template string
	err      error
}

func (f *fakePrompts) Load(_ string) (string, error) {
	return f.template, f.err
}

func (f *fakePrompts) Reload() {}

// failingIndexStore wraps an index store and fails selected operations.
type failingIndexStore struct {
	driven.IndexStore
	getErr       error
	hasErr       error
	deleteAllErr error
	putErr       error
}

func (f *failingIndexStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.IndexStore.Get(ctx, userID, name)
}

func (f *failingIndexStore) Has(ctx context.Context, userID, name string) (bool, error) {
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return f.IndexStore.Has(ctx, userID, name)
}

func (f *failingIndexStore) DeleteAll(ctx context.Context, userID string) error {
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	return f.IndexStore.DeleteAll(ctx, userID)
}

func (f *failingIndexStore) Put(ctx context.Context, userID, name string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.IndexStore.Put(ctx, userID, name, data)
}

// Ensure fakes implement interfaces.
var (
	_ driven.EmbeddingService = (*fakeEmbedder)(nil)
	_ driven.LLMService       = (*fakeLLM)(nil)
	_ driven.PromptStore      = (*fakePrompts)(nil)
	_ driven.IndexStore       = (*failingIndexStore)(nil)
)

// seedScenario stores the a/b/c documents used across tests:
// a=[0,0,0,0], b=[1,0,0,0], c=[0,5,0,0] for user u1.
func seedScenario(t *testing.T, store *memory.EmbeddingStore) {
	t.Helper()
	ctx := context.Background()
	docs := []domain.Document{
		{ID: "a", UserID: "u1", FileName: "a.txt", Summary: "alpha", Embedding: domain.VectorEmbedding([]float32{0, 0, 0, 0})},
		{ID: "b", UserID: "u1", FileName: "", Summary: "bravo", Embedding: domain.VectorEmbedding([]float32{1, 0, 0, 0})},
		{ID: "c", UserID: "u1", FileName: "c.txt", Summary: "charlie", Embedding: domain.VectorEmbedding([]float32{0, 5, 0, 0})},
	}
	for i := range docs {
		require.NoError(t, store.Save(ctx, &docs[i]))
	}
}

// noSleep records requested backoffs without waiting.
type noSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.waits = append(n.waits, d)
	n.mu.Unlock()
	return ctx.Err()
}
