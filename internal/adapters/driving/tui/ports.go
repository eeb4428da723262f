// Package tui provides the interactive ask console for docrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports and session settings used by the console.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Index rebuilds the user's index and reports status. Optional.
	Index driving.IndexService

	// UserID is the user whose documents are queried.
	UserID string

	// QueryTimeout bounds each question. Zero means no limit.
	QueryTimeout time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if strings.TrimSpace(p.UserID) == "" {
		return ErrMissingUser
	}
	return nil
}
