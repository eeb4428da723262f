package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Scheduler runs periodic index rebuilds.
type Scheduler interface {
	// Start runs due rebuilds until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for a running pass to finish.
	Stop() error

	// Schedule returns the persisted schedule, or nil if it never ran, with
	// up to limit recent runs, newest first.
	Schedule(ctx context.Context, limit int) (*domain.RebuildSchedule, []domain.RebuildRun, error)
}
