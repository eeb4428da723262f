package mcp

import (
	"time"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Index rebuilds indexes and reports their status.
	Index driving.IndexService

	// Document exposes document records as resources. Optional.
	Document driving.DocumentService

	// QueryTimeout bounds each ask call. Zero means no limit.
	QueryTimeout time.Duration
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
