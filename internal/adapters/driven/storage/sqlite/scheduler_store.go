package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// GetSchedule returns nil and no error for an unknown id, which the
// scheduler treats as "create on first start".
func (s *schedulerStore) GetSchedule(ctx context.Context, id string) (*domain.RebuildSchedule, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, interval_seconds, last_run, next_run, last_success, last_error
		FROM rebuild_schedules WHERE id = ?
	`, id)

	var schedule domain.RebuildSchedule
	var intervalSeconds int64
	var lastRun, nextRun, lastSuccess, lastError sql.NullString
	err := row.Scan(&schedule.ID, &intervalSeconds, &lastRun, &nextRun, &lastSuccess, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rebuild schedule: %w", err)
	}

	schedule.Interval = time.Duration(intervalSeconds) * time.Second
	schedule.LastRun = parseNullableTime(lastRun)
	schedule.NextRun = parseNullableTime(nextRun)
	schedule.LastSuccess = parseNullableTime(lastSuccess)
	schedule.LastError = lastError.String
	return &schedule, nil
}

// SaveSchedule upserts a schedule by id.
func (s *schedulerStore) SaveSchedule(ctx context.Context, schedule *domain.RebuildSchedule) error {
	if schedule == nil || schedule.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rebuild_schedules (id, interval_seconds, last_run, next_run, last_success, last_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error
	`, schedule.ID, int64(schedule.Interval/time.Second),
		formatNullableTime(schedule.LastRun), formatNullableTime(schedule.NextRun),
		formatNullableTime(schedule.LastSuccess), nullString(schedule.LastError))
	if err != nil {
		return fmt.Errorf("saving rebuild schedule: %w", err)
	}
	return nil
}

// RecordRun appends a finished pass.
func (s *schedulerStore) RecordRun(ctx context.Context, run *domain.RebuildRun) error {
	if run == nil || run.ScheduleID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rebuild_runs (schedule_id, started_at, ended_at, users_rebuilt, error)
		VALUES (?, ?, ?, ?, ?)
	`, run.ScheduleID, formatTime(run.StartedAt), formatTime(run.EndedAt),
		run.UsersRebuilt, nullString(run.Error))
	if err != nil {
		return fmt.Errorf("recording rebuild run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first. Insertion order breaks
// ties between runs that started at the same instant.
func (s *schedulerStore) RecentRuns(ctx context.Context, id string, limit int) ([]domain.RebuildRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT schedule_id, started_at, ended_at, users_rebuilt, error
		FROM rebuild_runs
		WHERE schedule_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rebuild runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.RebuildRun, 0)
	for rows.Next() {
		var run domain.RebuildRun
		var startedAt, endedAt string
		var errMsg sql.NullString
		if err := rows.Scan(&run.ScheduleID, &startedAt, &endedAt, &run.UsersRebuilt, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning rebuild run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.EndedAt = parseTime(endedAt)
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rebuild runs: %w", err)
	}
	return runs, nil
}

// PruneRuns keeps the newest keep runs per schedule.
func (s *schedulerStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM rebuild_runs
		WHERE seq NOT IN (
			SELECT seq FROM (
				SELECT seq, ROW_NUMBER() OVER (PARTITION BY schedule_id ORDER BY seq DESC) AS rn
				FROM rebuild_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning rebuild runs: %w", err)
	}
	return nil
}
