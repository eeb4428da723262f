package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// runsKeep is the number of runs retained in history.
	runsKeep = 100

	// defaultTick is how often the loop checks whether a pass is due.
	defaultTick = time.Minute
)

// Scheduler rebuilds every user's index on a fixed interval. Passes run on
// the loop goroutine, so they never overlap.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	indexer driving.IndexService

	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewScheduler creates a scheduler.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	indexer driving.IndexService,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		indexer: indexer,
		tick:    defaultTick,
		now:     time.Now,
	}
}

// Start runs due passes until ctx is cancelled or Stop is called.
// It returns immediately when periodic rebuilds are disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled() {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
		}
		s.mu.Unlock()
		close(done)
	}()

	if err := s.ensureSchedule(ctx); err != nil {
		logger.Error("scheduler: failed to load schedule: %v", err)
	}

	s.runIfDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// Stop ends the loop and waits for a running pass to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// Schedule returns the persisted schedule and its recent runs.
func (s *Scheduler) Schedule(ctx context.Context, limit int) (*domain.RebuildSchedule, []domain.RebuildRun, error) {
	schedule, err := s.store.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		return schedule, nil, nil
	}
	runs, err := s.store.RecentRuns(ctx, domain.ScheduleIndexRebuild, limit)
	if err != nil {
		return nil, nil, err
	}
	return schedule, runs, nil
}

// ensureSchedule creates the schedule or applies a changed interval.
func (s *Scheduler) ensureSchedule(ctx context.Context) error {
	schedule, err := s.store.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	if err != nil {
		return err
	}
	if schedule == nil {
		schedule = &domain.RebuildSchedule{ID: domain.ScheduleIndexRebuild}
	}
	schedule.Reschedule(s.config.Interval, s.now())
	return s.store.SaveSchedule(ctx, schedule)
}

// runIfDue runs one pass when the schedule is due.
func (s *Scheduler) runIfDue(ctx context.Context) {
	schedule, err := s.store.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	if err != nil {
		logger.Error("scheduler: failed to load schedule: %v", err)
		return
	}
	if schedule == nil || !schedule.Due(s.now()) {
		return
	}

	run := s.rebuildAll(ctx)
	schedule.Complete(run)

	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		logger.Error("scheduler: failed to save schedule: %v", err)
	}
	if err := s.store.RecordRun(ctx, &run); err != nil {
		logger.Error("scheduler: failed to record run: %v", err)
	}
	if err := s.store.PruneRuns(ctx, runsKeep); err != nil {
		logger.Error("scheduler: failed to prune runs: %v", err)
	}
}

// rebuildAll rebuilds every user with documents.
func (s *Scheduler) rebuildAll(ctx context.Context) domain.RebuildRun {
	run := domain.RebuildRun{
		ScheduleID: domain.ScheduleIndexRebuild,
		StartedAt:  s.now(),
	}
	if s.indexer != nil {
		n, err := s.indexer.RebuildAll(ctx)
		run.UsersRebuilt = n
		if err != nil {
			run.Error = err.Error()
			logger.Warn("scheduler: rebuild pass failed: %v", err)
		}
	}
	run.EndedAt = s.now()
	logger.Info("scheduler: rebuilt %d user indexes", run.UsersRebuilt)
	return run
}
