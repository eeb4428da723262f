package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &Services{}
		assert.NoError(t, result.Close())
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "openai without key returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, nil)

			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
			} else {
				assert.NoError(t, err)
			}

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_OllamaDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "all-minilm",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 384, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
		model    string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				Model:    "llama3.2",
			},
			model: "llama3.2",
		},
		{
			name: "openai provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4",
			},
			model: "gpt-4",
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
			model: "claude-3-5-sonnet-latest",
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.LLMSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings, nil)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestNewServices(t *testing.T) {
	t.Run("both configured", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.Embedding.APIKey = "k"
		settings.LLM.APIKey = "k"

		svcs, err := NewServices(settings)
		require.NoError(t, err)
		assert.NotNil(t, svcs.Embedding)
		assert.NotNil(t, svcs.LLM)
		assert.Empty(t, svcs.Warnings)
		assert.NoError(t, svcs.Close())
	})

	t.Run("missing keys leave services nil with warnings", func(t *testing.T) {
		svcs, err := NewServices(domain.DefaultSettings())
		require.NoError(t, err)
		assert.Nil(t, svcs.Embedding)
		assert.Nil(t, svcs.LLM)
		require.Len(t, svcs.Warnings, 2)
		assert.Contains(t, svcs.Warnings[0], "OPENAI_API_KEY")
	})

	t.Run("anthropic embedding is an error", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.Embedding.Provider = domain.AIProviderAnthropic

		_, err := NewServices(settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestValidateConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	ctx := context.Background()

	assert.NoError(t, ValidateEmbeddingConfig(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}))
	assert.NoError(t, ValidateLLMConfig(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}))

	assert.ErrorIs(t, ValidateEmbeddingConfig(ctx, &domain.EmbeddingSettings{}), domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, ValidateLLMConfig(ctx, nil), domain.ErrLLMUnavailable)
}

func TestValidateConfig_MissingKeyIsConfigurationError(t *testing.T) {
	ctx := context.Background()

	err := ValidateEmbeddingConfig(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "embedding.api_key", cfgErr.Key)

	err = ValidateLLMConfig(ctx, &domain.LLMSettings{Provider: domain.AIProviderAnthropic})
	require.ErrorIs(t, err, domain.ErrConfiguration)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "llm.api_key", cfgErr.Key)

	assert.ErrorIs(t, ValidateLLMConfig(ctx, nil), domain.ErrConfiguration)
	assert.ErrorIs(t, ValidateEmbeddingConfig(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic}), domain.ErrConfiguration)
}

func TestNewServices_UnsupportedProviderIsConfigurationError(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Embedding.Provider = domain.AIProviderAnthropic

	_, err := NewServices(settings)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
