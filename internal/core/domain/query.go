package domain

import "time"

// Fixed answers returned when no generation call is made.
const (
	// AnswerNotIndexed is returned when the user has no index at all.
	AnswerNotIndexed = "No documents have been indexed yet. Please upload and index some documents first."

	// AnswerNoRelevant is returned when search found nothing usable.
	AnswerNoRelevant = "I couldn't find any relevant documents to answer your question. " +
		"Please try rephrasing your query or upload more documents."
)

// DefaultTopK is the number of neighbours retrieved per query.
const DefaultTopK = 3

// RetrievedDocument is a document hit with its distance and score.
type RetrievedDocument struct {
	// Document is the full record fetched from the embedding store.
	Document Document

	// Distance is the squared L2 distance to the query vector.
	Distance float32

	// Score is 1/(1+Distance)*100. Only comparable within one query.
	Score float64
}

// Source is one cited document in a query response.
type Source struct {
	DocumentID      string  `json:"document_id"`
	Filename        string  `json:"filename"`
	SimilarityScore float64 `json:"similarity_score"`
	Summary         string  `json:"summary"`
}

// QueryResponse is the result of one question.
type QueryResponse struct {
	// Answer is the generated text or one of the fixed answers.
	Answer string `json:"answer"`

	// Sources lists the documents used as context, in rank order.
	Sources []Source `json:"sources"`

	// ProcessingTime is seconds elapsed from the start of query handling.
	ProcessingTime float64 `json:"processing_time"`
}

// SimilarityScore converts a squared L2 distance into a relative score.
// It is 100 at distance 0 and decays towards 0.
func SimilarityScore(distance float32) float64 {
	return 1 / (1 + float64(distance)) * 100
}

// RebuildStats reports the outcome of one index rebuild.
type RebuildStats struct {
	// UserID is the owner of the rebuilt index.
	UserID string `json:"user_id"`

	// DocumentsEmbedded counts documents newly embedded during this run.
	DocumentsEmbedded int `json:"documents_embedded"`

	// EmbedFailures counts documents left without an embedding after retry.
	EmbedFailures int `json:"embed_failures"`

	// SkippedNoSummary counts documents without a summary to embed.
	SkippedNoSummary int `json:"skipped_no_summary"`

	// SkippedMalformed counts records whose stored embedding was unusable.
	SkippedMalformed int `json:"skipped_malformed"`

	// TotalIndexed is the number of vectors in the new index.
	TotalIndexed int `json:"total_indexed"`

	// Dimensions is the inferred vector size.
	Dimensions int `json:"dimensions"`

	// TotalDocuments counts all of the user's documents.
	TotalDocuments int `json:"total_documents"`

	// LastIndexedAt is the timestamp written to indexed documents.
	LastIndexedAt time.Time `json:"last_indexed_at"`

	// Duration is the wall time of the rebuild.
	Duration time.Duration `json:"duration"`
}

// IndexStatus summarises a user's indexing state.
type IndexStatus struct {
	UserID            string    `json:"user_id"`
	HasIndex          bool      `json:"has_index"`
	TotalDocuments    int       `json:"total_documents"`
	EmbeddedDocuments int       `json:"embedded_documents"`
	IndexedDocuments  int       `json:"indexed_documents"`
	LastIndexedAt     time.Time `json:"last_indexed_at,omitempty"`
}

// LastIndexedDisplay returns the last indexed time or "Never".
func (s IndexStatus) LastIndexedDisplay() string {
	if s.LastIndexedAt.IsZero() {
		return "Never"
	}
	return s.LastIndexedAt.Format(time.RFC3339)
}

// Health values reported per service.
const (
	HealthHealthy       = "healthy"
	HealthDegraded      = "degraded"
	HealthNotConfigured = "not_configured"
)

// HealthStatus is the result of a health check.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
