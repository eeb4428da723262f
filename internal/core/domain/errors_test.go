package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrNoEmbeddings", ErrNoEmbeddings},
		{"ErrMalformedEmbedding", ErrMalformedEmbedding},
		{"ErrIndexNotFound", ErrIndexNotFound},
		{"ErrIndexNotLoaded", ErrIndexNotLoaded},
		{"ErrLoadFailure", ErrLoadFailure},
		{"ErrSearchDimensionMismatch", ErrSearchDimensionMismatch},
		{"ErrUpstreamGeneration", ErrUpstreamGeneration},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrRebuildInProgress", ErrRebuildInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrIndexNotFound))
}

func TestConfigError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("startup: %w", &ConfigError{
		Key:    "embedding.api_key",
		Env:    "OPENAI_API_KEY",
		Reason: "is required",
	})

	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "embedding.api_key", cfgErr.Key)
	assert.Contains(t, err.Error(), "embedding.api_key is required")
	assert.Contains(t, err.Error(), "set OPENAI_API_KEY")
}

func TestConfigError_WithoutEnv(t *testing.T) {
	err := &ConfigError{Key: "index.backend", Reason: "must be sqlite or filesystem"}
	assert.NotContains(t, err.Error(), "set ")
}

func TestUpstreamError_MatchesSentinelAndCause(t *testing.T) {
	err := &UpstreamError{
		Stage:      StageRebuildEmbed,
		UserID:     "user-1",
		DocumentID: "doc-9",
		Err:        context.DeadlineExceeded,
	}

	assert.True(t, errors.Is(err, ErrUpstreamGeneration))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "stage=rebuild_embed")
	assert.Contains(t, err.Error(), "user=user-1")
	assert.Contains(t, err.Error(), "document=doc-9")
}

func TestUpstreamError_NoDocument(t *testing.T) {
	err := &UpstreamError{Stage: StageCompletion, UserID: "u", Err: errors.New("boom")}
	assert.NotContains(t, err.Error(), "document=")
	assert.Contains(t, err.Error(), "boom")
}

func TestServiceUnavailable_MatchesConfiguration(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, &ConfigError{Key: "embedding.api_key", Reason: "is required"})

	assert.True(t, errors.Is(err, ErrEmbeddingUnavailable))
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrLLMUnavailable))
	assert.True(t, errors.Is(ErrLLMUnavailable, ErrConfiguration))

	assert.Equal(t, "embedding service unavailable", ErrEmbeddingUnavailable.Error())
	assert.Equal(t, "LLM service unavailable", ErrLLMUnavailable.Error())
}
