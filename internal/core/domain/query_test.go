package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityScore_ZeroDistance(t *testing.T) {
	assert.InDelta(t, 100.0, SimilarityScore(0), 1e-9)
}

func TestSimilarityScore_Monotonic(t *testing.T) {
	distances := []float32{0, 0.01, 0.81, 1, 10, 400, 1e6}
	for i := 1; i < len(distances); i++ {
		assert.Greater(t, SimilarityScore(distances[i-1]), SimilarityScore(distances[i]),
			"score(%v) should exceed score(%v)", distances[i-1], distances[i])
	}
}

func TestSimilarityScore_KnownValues(t *testing.T) {
	assert.InDelta(t, 50.0, SimilarityScore(1), 1e-9)
	assert.InDelta(t, 1/(1+0.81)*100, SimilarityScore(0.81), 1e-4)
}

func TestIndexStatus_LastIndexedDisplay(t *testing.T) {
	assert.Equal(t, "Never", IndexStatus{}.LastIndexedDisplay())

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T12:00:00Z", IndexStatus{LastIndexedAt: ts}.LastIndexedDisplay())
}

func TestFixedAnswers(t *testing.T) {
	assert.Equal(t,
		"No documents have been indexed yet. Please upload and index some documents first.",
		AnswerNotIndexed)
	assert.Equal(t,
		"I couldn't find any relevant documents to answer your question. "+
			"Please try rephrasing your query or upload more documents.",
		AnswerNoRelevant)
}
