package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates required credentials or endpoints are missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoEmbeddings indicates a rebuild found zero usable embeddings.
	// The user is left without an index.
	ErrNoEmbeddings = errors.New("no embeddings found to build index")

	// ErrMalformedEmbedding indicates an embedding could not be used.
	// Per record it is skipped; a non-rectangular stack fails the build.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrIndexNotFound indicates the user has no index artifact.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexNotLoaded indicates search was called on an empty session.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrLoadFailure indicates an index artifact could not be fetched or decoded.
	// Retryable, usually by triggering a rebuild.
	ErrLoadFailure = errors.New("index load failure")

	// ErrSearchDimensionMismatch indicates the query vector size differs from the index.
	ErrSearchDimensionMismatch = errors.New("search dimension mismatch")

	// ErrUpstreamGeneration indicates an embedding or completion call failed.
	ErrUpstreamGeneration = errors.New("upstream generation failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// It matches ErrConfiguration.
	ErrEmbeddingUnavailable error = &unavailableError{service: "embedding"}

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// It matches ErrConfiguration.
	ErrLLMUnavailable error = &unavailableError{service: "LLM"}

	// ErrRebuildInProgress indicates a rebuild for the same user is running.
	ErrRebuildInProgress = errors.New("rebuild in progress")
)

// ConfigError names the configuration key that is missing or invalid.
type ConfigError struct {
	// Key is the configuration key, e.g. "embedding.api_key".
	Key string

	// Env is the environment variable that can provide the value, if any.
	Env string

	// Reason describes the problem.
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Key, e.Reason)
	if e.Env != "" {
		msg += fmt.Sprintf(" (set %s)", e.Env)
	}
	return msg
}

// unavailableError is a missing AI service. It reads as its own message but
// unwraps to ErrConfiguration.
type unavailableError struct {
	service string
}

func (e *unavailableError) Error() string {
	return e.service + " service unavailable"
}

func (e *unavailableError) Unwrap() error {
	return ErrConfiguration
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// Upstream call stages.
const (
	StageRebuildEmbed = "rebuild_embed"
	StageQueryEmbed   = "query_embed"
	StageCompletion   = "completion"
)

// UpstreamError carries the context of a failed embedding or completion call.
type UpstreamError struct {
	// Stage is one of the Stage constants.
	Stage string

	// UserID is the user the call was made for.
	UserID string

	// DocumentID is set for per-document calls during rebuild.
	DocumentID string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *UpstreamError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("%s: stage=%s user=%s document=%s: %v",
			ErrUpstreamGeneration, e.Stage, e.UserID, e.DocumentID, e.Err)
	}
	return fmt.Sprintf("%s: stage=%s user=%s: %v", ErrUpstreamGeneration, e.Stage, e.UserID, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamGeneration, e.Err}
}
