package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// SchedulerStore persists periodic rebuild state and run history.
type SchedulerStore interface {
	// GetSchedule returns nil and no error when the schedule was never saved.
	GetSchedule(ctx context.Context, id string) (*domain.RebuildSchedule, error)

	// SaveSchedule creates or replaces a schedule.
	SaveSchedule(ctx context.Context, schedule *domain.RebuildSchedule) error

	// RecordRun appends a finished pass to the history.
	RecordRun(ctx context.Context, run *domain.RebuildRun) error

	// RecentRuns returns up to limit runs for a schedule, newest first.
	RecentRuns(ctx context.Context, id string, limit int) ([]domain.RebuildRun, error)

	// PruneRuns keeps the newest keep runs per schedule.
	PruneRuns(ctx context.Context, keep int) error
}
