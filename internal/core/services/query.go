package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// contextSeparator joins retrieved summaries in the prompt.
const contextSeparator = "\n\n"

// QueryService answers questions from a user's indexed summaries.
// The pipeline is sequential: embed, search, retrieve, compose.
type QueryService struct {
	index     driven.IndexStore
	retriever *Retriever
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	prompts   driven.PromptStore
	cache     *SessionCache
	topK      int

	now func() time.Time
}

// NewQueryService creates a query service.
// prompts may be nil, in which case the built-in answer prompt is used.
func NewQueryService(
	docs driven.EmbeddingStore,
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	topK int,
) *QueryService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &QueryService{
		index:     index,
		retriever: NewRetriever(docs),
		embedder:  embedder,
		llm:       llm,
		prompts:   prompts,
		topK:      topK,
		now:       time.Now,
	}
}

// SetCache keeps loaded sessions between queries instead of loading per query.
func (s *QueryService) SetCache(cache *SessionCache) {
	s.cache = cache
}

// ProcessQuery answers the query from the user's top-k documents.
func (s *QueryService) ProcessQuery(ctx context.Context, userID, query string) (*domain.QueryResponse, error) {
	start := s.now()
	elapsed := func() float64 {
		return s.now().Sub(start).Seconds()
	}

	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	hasIndex, err := s.index.Has(ctx, userID, driven.BlobIndexArtifact)
	if err != nil {
		return nil, fmt.Errorf("check index: %w", err)
	}
	if !hasIndex {
		return fixedAnswer(domain.AnswerNotIndexed, elapsed()), nil
	}

	session, err := s.session(ctx, userID)
	if err != nil {
		// A concurrent rebuild may remove the artifact between the check and the load.
		if errors.Is(err, domain.ErrIndexNotFound) {
			return fixedAnswer(domain.AnswerNotIndexed, elapsed()), nil
		}
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		upErr := &domain.UpstreamError{Stage: domain.StageQueryEmbed, UserID: userID, Err: err}
		logger.Error("%v", upErr)
		return nil, upErr
	}

	hits, err := session.Search(vector, s.topK)
	if err != nil {
		return nil, err
	}
	retrieved, err := s.retriever.Retrieve(ctx, userID, hits)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return fixedAnswer(domain.AnswerNoRelevant, elapsed()), nil
	}

	prompt := RenderAnswerPrompt(s.answerTemplate(), BuildContext(retrieved), query)
	answer, err := s.llm.Complete(ctx, prompt, driven.CompleteOptions{})
	if err != nil {
		upErr := &domain.UpstreamError{Stage: domain.StageCompletion, UserID: userID, Err: err}
		logger.Error("%v", upErr)
		return nil, upErr
	}

	resp := &domain.QueryResponse{
		Answer:  answer,
		Sources: toSources(retrieved),
	}
	resp.ProcessingTime = elapsed()
	logger.Debug("query answered: %s", logger.Fields(
		"user", userID, "sources", len(resp.Sources), "seconds", resp.ProcessingTime))
	return resp, nil
}

// session returns a loaded session, from the cache when one is configured.
func (s *QueryService) session(ctx context.Context, userID string) (*IndexSession, error) {
	if s.cache != nil {
		return s.cache.Session(ctx, userID)
	}
	session := NewIndexSession(s.index)
	if err := session.Load(ctx, userID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *QueryService) answerTemplate() string {
	if s.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		if err != nil {
			logger.Warn("answer prompt unavailable, using default: %v", err)
		}
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}

// BuildContext joins the retrieved summaries in rank order.
func BuildContext(docs []domain.RetrievedDocument) string {
	summaries := make([]string, len(docs))
	for i := range docs {
		summaries[i] = docs[i].Document.Summary
	}
	return strings.Join(summaries, contextSeparator)
}

// RenderAnswerPrompt fills the {context} and {query} placeholders.
func RenderAnswerPrompt(template, context, query string) string {
	return strings.NewReplacer("{context}", context, "{query}", query).Replace(template)
}

func toSources(docs []domain.RetrievedDocument) []domain.Source {
	sources := make([]domain.Source, len(docs))
	for i := range docs {
		d := &docs[i].Document
		sources[i] = domain.Source{
			DocumentID:      d.ID,
			Filename:        d.DisplayName(),
			SimilarityScore: docs[i].Score,
			Summary:         d.Summary,
		}
	}
	return sources
}

func fixedAnswer(answer string, seconds float64) *domain.QueryResponse {
	return &domain.QueryResponse{
		Answer:         answer,
		Sources:        []domain.Source{},
		ProcessingTime: seconds,
	}
}
