package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure SchedulerStore implements the interface.
var _ driven.SchedulerStore = (*SchedulerStore)(nil)

// SchedulerStore is an in-memory implementation of driven.SchedulerStore.
type SchedulerStore struct {
	mu        sync.RWMutex
	schedules map[string]domain.RebuildSchedule
	runs      []domain.RebuildRun
}

// NewSchedulerStore creates a new in-memory scheduler store.
func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{
		schedules: make(map[string]domain.RebuildSchedule),
	}
}

// GetSchedule returns a copy of the schedule, or nil if it was never saved.
func (s *SchedulerStore) GetSchedule(_ context.Context, id string) (*domain.RebuildSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return nil, nil
	}
	return &schedule, nil
}

// SaveSchedule stores a copy of the schedule.
func (s *SchedulerStore) SaveSchedule(_ context.Context, schedule *domain.RebuildSchedule) error {
	if schedule == nil || schedule.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[schedule.ID] = *schedule
	return nil
}

// RecordRun appends a run.
func (s *SchedulerStore) RecordRun(_ context.Context, run *domain.RebuildRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// RecentRuns returns up to limit runs for id, newest first.
func (s *SchedulerStore) RecentRuns(_ context.Context, id string, limit int) ([]domain.RebuildRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]domain.RebuildRun, 0)
	for i := len(s.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		if s.runs[i].ScheduleID == id {
			runs = append(runs, s.runs[i])
		}
	}
	return runs, nil
}

// PruneRuns keeps the newest keep runs per schedule.
func (s *SchedulerStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	kept := make([]domain.RebuildRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		id := s.runs[i].ScheduleID
		if counts[id] < keep {
			counts[id]++
			kept = append(kept, s.runs[i])
		}
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].StartedAt.Before(kept[b].StartedAt)
	})
	s.runs = kept
	return nil
}
