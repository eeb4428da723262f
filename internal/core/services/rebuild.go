package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs rebuilds and reports index status.
type IndexService struct {
	docs     driven.EmbeddingStore
	index    driven.IndexStore
	embedder driven.EmbeddingService
	builder  *IndexBuilder
	cache    *SessionCache
	settings domain.RebuildSettings

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

// NewIndexService creates an index service.
// The embedding service may be nil; only ForceRebuild works without it.
func NewIndexService(
	docs driven.EmbeddingStore,
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	settings domain.RebuildSettings,
) *IndexService {
	return &IndexService{
		docs:     docs,
		index:    index,
		embedder: embedder,
		builder:  NewIndexBuilder(docs),
		settings: settings,
		sleep:    sleepContext,
		now:      time.Now,
		running:  make(map[string]struct{}),
	}
}

// SetCache registers the session cache invalidated after each rebuild.
func (s *IndexService) SetCache(cache *SessionCache) {
	s.cache = cache
}

// Rebuild embeds documents without an embedding, then rebuilds the index.
func (s *IndexService) Rebuild(ctx context.Context, userID string) (*domain.RebuildStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.rebuild(ctx, userID, true)
}

// ForceRebuild rebuilds from the embeddings already stored.
func (s *IndexService) ForceRebuild(ctx context.Context, userID string) (*domain.RebuildStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.rebuild(ctx, userID, false)
}

// RebuildAll rebuilds every user that owns documents.
// Failures for one user do not stop the others; they are joined into the
// returned error.
func (s *IndexService) RebuildAll(ctx context.Context) (int, error) {
	users, err := s.docs.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	rebuilt := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		var rebuildErr error
		if s.embedder != nil {
			_, rebuildErr = s.Rebuild(ctx, userID)
		} else {
			_, rebuildErr = s.ForceRebuild(ctx, userID)
		}
		if rebuildErr != nil {
			logger.Error("rebuild failed: %s", logger.Fields("user", userID, "err", rebuildErr))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, rebuildErr))
			continue
		}
		rebuilt++
	}
	return rebuilt, errors.Join(errs...)
}

// HasIndex reports whether the user's index artifact exists.
func (s *IndexService) HasIndex(ctx context.Context, userID string) (bool, error) {
	ok, err := s.index.Has(ctx, userID, driven.BlobIndexArtifact)
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	return ok, nil
}

// Status reports the user's document and index counts.
func (s *IndexService) Status(ctx context.Context, userID string) (*domain.IndexStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	hasIndex, err := s.HasIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	status := &domain.IndexStatus{
		UserID:         userID,
		HasIndex:       hasIndex,
		TotalDocuments: len(docs),
	}
	for i := range docs {
		if docs[i].HasEmbedding() {
			status.EmbeddedDocuments++
		}
		if at := docs[i].IndexedAt; !at.IsZero() {
			status.IndexedDocuments++
			if at.After(status.LastIndexedAt) {
				status.LastIndexedAt = at
			}
		}
	}
	return status, nil
}

func (s *IndexService) rebuild(ctx context.Context, userID string, embed bool) (*domain.RebuildStats, error) {
	if err := s.acquire(userID); err != nil {
		return nil, err
	}
	defer s.release(userID)

	start := s.now()
	stats := &domain.RebuildStats{UserID: userID}

	logger.Section("Rebuild " + userID)

	if err := s.index.DeleteAll(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete previous index: %w", err)
	}
	defer s.invalidate(userID)

	if embed {
		if err := s.embedMissing(ctx, userID, stats); err != nil {
			return nil, err
		}
	}

	result, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.SkippedMalformed = result.SkippedMalformed
	stats.TotalIndexed = result.Artifact.Index.Len()
	stats.Dimensions = result.Artifact.Index.Dim()

	if err := s.index.Put(ctx, userID, driven.BlobIndexArtifact, result.Data); err != nil {
		return nil, fmt.Errorf("store index: %w", err)
	}

	at := s.now().UTC()
	if err := s.docs.MarkIndexed(ctx, result.Artifact.IDs, at); err != nil {
		return nil, fmt.Errorf("mark indexed: %w", err)
	}
	stats.LastIndexedAt = at

	docs, err := s.docs.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	stats.TotalDocuments = len(docs)
	stats.Duration = s.now().Sub(start)

	logger.Info("rebuild complete: %s", logger.Fields(
		"user", userID,
		"embedded", stats.DocumentsEmbedded,
		"failed", stats.EmbedFailures,
		"indexed", stats.TotalIndexed,
		"dim", stats.Dimensions,
		"duration", stats.Duration))
	return stats, nil
}

// embedMissing embeds every document that has no embedding yet.
// Upstream failures are counted and skipped; store failures abort.
func (s *IndexService) embedMissing(ctx context.Context, userID string, stats *domain.RebuildStats) error {
	docs, err := s.docs.FetchWithoutEmbedding(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch documents without embedding: %w", err)
	}
	logger.Info("embedding %d documents for user %s", len(docs), userID)

	for i := range docs {
		doc := &docs[i]
		if strings.TrimSpace(doc.Summary) == "" {
			stats.SkippedNoSummary++
			logger.Warn("rebuild: no summary: %s", logger.Fields("user", userID, "document", doc.ID))
			continue
		}

		vector, err := s.embedWithRetry(ctx, userID, doc)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.EmbedFailures++
			logger.Error("%v", err)
			continue
		}

		if err := s.docs.UpdateEmbedding(ctx, doc.ID, vector); err != nil {
			return fmt.Errorf("store embedding for document %s: %w", doc.ID, err)
		}
		stats.DocumentsEmbedded++
		logger.Debug("embedded document %s (%d dims)", doc.ID, len(vector))
	}
	return nil
}

// embedWithRetry calls the embedder and retries once after the backoff.
func (s *IndexService) embedWithRetry(ctx context.Context, userID string, doc *domain.Document) ([]float32, error) {
	vector, err := s.embedOnce(ctx, doc.Summary)
	if err == nil {
		return vector, nil
	}

	logger.Warn("rebuild: embed failed, retrying in %s: %s", s.settings.RetryBackoff, logger.Fields(
		"stage", domain.StageRebuildEmbed, "user", userID, "document", doc.ID, "err", err))
	if sleepErr := s.sleep(ctx, s.settings.RetryBackoff); sleepErr != nil {
		return nil, sleepErr
	}

	vector, err = s.embedOnce(ctx, doc.Summary)
	if err != nil {
		return nil, &domain.UpstreamError{
			Stage:      domain.StageRebuildEmbed,
			UserID:     userID,
			DocumentID: doc.ID,
			Err:        err,
		}
	}
	return vector, nil
}

func (s *IndexService) embedOnce(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return vector, nil
}

func (s *IndexService) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[userID]; busy {
		return fmt.Errorf("%w: user %s", domain.ErrRebuildInProgress, userID)
	}
	s.running[userID] = struct{}{}
	return nil
}

func (s *IndexService) release(userID string) {
	s.mu.Lock()
	delete(s.running, userID)
	s.mu.Unlock()
}

func (s *IndexService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
