// Package messages defines Bubbletea message types for the console.
// Messages represent events that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// AnswerReceived carries the result of one question back to the model.
type AnswerReceived struct {
	Query    string
	Response *domain.QueryResponse
	Err      error
}

// RebuildCompleted carries the result of an index rebuild.
type RebuildCompleted struct {
	Stats *domain.RebuildStats
	Err   error
}

// StatusLoaded carries the user's index status.
type StatusLoaded struct {
	Status *domain.IndexStatus
	Err    error
}

// ErrorOccurred is sent when an operation fails outside a question.
type ErrorOccurred struct {
	Err error
}
