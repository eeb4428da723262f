// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI adapters built from settings.
// A field is nil when its provider is not configured.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Warnings  []string // Non-fatal configuration issues.
}

// Close releases all resources held by the services.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.LLM != nil {
		errs = append(errs, s.LLM.Close())
	}
	return errors.Join(errs...)
}

// NewServices builds the embedding and LLM adapters from settings.
// Both share one upstream limiter. A provider that is not configured is
// recorded as a warning and left nil; an invalid configuration is an error.
func NewServices(settings domain.Settings) (*Services, error) {
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: settings.Upstream.RateLimit,
		BurstSize:         settings.Upstream.Burst,
	})

	result := &Services{}

	embedding, err := CreateEmbeddingService(&settings.Embedding, limiter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		result.Warnings = append(result.Warnings, warning(settings.ValidateEmbedding(), "embedding"))
	} else {
		result.Embedding = embedding
	}

	llm, err := CreateLLMService(&settings.LLM, limiter)
	if err != nil {
		if result.Embedding != nil {
			_ = result.Embedding.Close()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		result.Warnings = append(result.Warnings, warning(settings.ValidateLLM(), "llm"))
	} else {
		result.LLM = llm
	}

	return result, nil
}

// missingConfig returns err, or a ConfigError naming key when settings
// validate but still produced no service.
func missingConfig(err error, key string) error {
	if err != nil {
		return err
	}
	return &domain.ConfigError{Key: key, Reason: "is not configured"}
}

func warning(err error, name string) string {
	if err != nil {
		return err.Error()
	}
	return name + " is not configured"
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		var full domain.Settings
		if settings != nil {
			full.Embedding = *settings
		}
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, missingConfig(full.ValidateEmbedding(), "embedding.provider"))
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		var full domain.Settings
		if settings != nil {
			full.LLM = *settings
		}
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, missingConfig(full.ValidateLLM(), "llm.provider"))
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, limiter), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings, limiter *ratelimit.Limiter) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
		Limiter:    limiter,
	})
}
