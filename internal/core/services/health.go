package services

import (
	"context"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// Service names reported by the health check.
const (
	HealthServiceStore      = "store"
	HealthServiceEmbedding  = "embedding"
	HealthServiceLLM        = "llm"
	HealthServiceIndexStore = "index_store"
)

// healthProbeUser is a namespace no real user owns.
const healthProbeUser = "__health__"

// HealthService probes every collaborator the query path depends on.
type HealthService struct {
	docs     driven.EmbeddingStore
	index    driven.IndexStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	now      func() time.Time
}

// NewHealthService creates a health service. Nil AI services are reported
// as not configured.
func NewHealthService(
	docs driven.EmbeddingStore,
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
) *HealthService {
	return &HealthService{
		docs:     docs,
		index:    index,
		embedder: embedder,
		llm:      llm,
		now:      time.Now,
	}
}

// Check probes each service. Any failing probe degrades the overall status;
// services that are not configured do not.
func (s *HealthService) Check(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Status:    domain.HealthHealthy,
		Timestamp: s.now().UTC(),
		Services:  make(map[string]string, 4),
	}

	report := func(name string, configured bool, probe func() error) {
		if !configured {
			status.Services[name] = domain.HealthNotConfigured
			return
		}
		if err := probe(); err != nil {
			status.Services[name] = "error: " + err.Error()
			status.Status = domain.HealthDegraded
			return
		}
		status.Services[name] = domain.HealthHealthy
	}

	report(HealthServiceStore, s.docs != nil, func() error {
		return s.docs.Ping(ctx)
	})
	report(HealthServiceEmbedding, s.embedder != nil, func() error {
		return s.embedder.Ping(ctx)
	})
	report(HealthServiceLLM, s.llm != nil, func() error {
		return s.llm.Ping(ctx)
	})
	report(HealthServiceIndexStore, s.index != nil, func() error {
		_, err := s.index.Has(ctx, healthProbeUser, driven.BlobIndexArtifact)
		return err
	})

	return status
}
