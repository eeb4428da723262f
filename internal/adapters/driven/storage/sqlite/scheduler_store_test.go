package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetSchedule(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedules := store.SchedulerStore()
	now := time.Now().UTC().Truncate(time.Second)

	got, err := schedules.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	require.NoError(t, err)
	assert.Nil(t, got, "unknown schedule is nil without error")

	schedule := &domain.RebuildSchedule{
		ID:          domain.ScheduleIndexRebuild,
		Interval:    45 * time.Minute,
		LastRun:     now.Add(-30 * time.Minute),
		NextRun:     now.Add(15 * time.Minute),
		LastSuccess: now.Add(-30 * time.Minute),
	}
	require.NoError(t, schedules.SaveSchedule(ctx, schedule))

	got, err = schedules.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 45*time.Minute, got.Interval)
	assert.True(t, schedule.LastRun.Equal(got.LastRun))
	assert.True(t, schedule.NextRun.Equal(got.NextRun))
	assert.True(t, schedule.LastSuccess.Equal(got.LastSuccess))
	assert.Empty(t, got.LastError)

	// Upsert replaces every column.
	schedule.Interval = time.Hour
	schedule.LastError = "u2: embedding unavailable"
	schedule.LastSuccess = time.Time{}
	require.NoError(t, schedules.SaveSchedule(ctx, schedule))

	got, err = schedules.GetSchedule(ctx, domain.ScheduleIndexRebuild)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got.Interval)
	assert.Equal(t, "u2: embedding unavailable", got.LastError)
	assert.True(t, got.LastSuccess.IsZero())
}

func TestSchedulerStore_SaveSchedule_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	assert.ErrorIs(t, store.SchedulerStore().SaveSchedule(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SchedulerStore().SaveSchedule(ctx, &domain.RebuildSchedule{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SchedulerStore().RecordRun(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_Runs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedules := store.SchedulerStore()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 5; i++ {
		run := &domain.RebuildRun{
			ScheduleID:   domain.ScheduleIndexRebuild,
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			EndedAt:      base.Add(time.Duration(i)*time.Hour + 2*time.Second),
			UsersRebuilt: i,
		}
		if i == 3 {
			run.Error = "u9: rate limited"
		}
		require.NoError(t, schedules.RecordRun(ctx, run))
	}

	runs, err := schedules.RecentRuns(ctx, domain.ScheduleIndexRebuild, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].UsersRebuilt)
	assert.Equal(t, 3, runs[1].UsersRebuilt)
	assert.Equal(t, "u9: rate limited", runs[1].Error)
	assert.False(t, runs[1].Succeeded())
	assert.Equal(t, 2*time.Second, runs[0].Duration())

	empty, err := schedules.RecentRuns(ctx, "other", 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSchedulerStore_PruneRuns(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedules := store.SchedulerStore()
	base := time.Now().UTC()

	for i := 0; i < 6; i++ {
		require.NoError(t, schedules.RecordRun(ctx, &domain.RebuildRun{
			ScheduleID:   domain.ScheduleIndexRebuild,
			StartedAt:    base,
			EndedAt:      base,
			UsersRebuilt: i,
		}))
	}
	require.NoError(t, schedules.RecordRun(ctx, &domain.RebuildRun{
		ScheduleID: "other", StartedAt: base, EndedAt: base,
	}))

	require.NoError(t, schedules.PruneRuns(ctx, 2))

	runs, err := schedules.RecentRuns(ctx, domain.ScheduleIndexRebuild, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 5, runs[0].UsersRebuilt)
	assert.Equal(t, 4, runs[1].UsersRebuilt)

	other, err := schedules.RecentRuns(ctx, "other", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, formatNullableTime(time.Time{}))
	assert.Nil(t, nullString(""))
	assert.Equal(t, "hello", nullString("hello"))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	formatted := formatNullableTime(now)
	require.NotNil(t, formatted)
	assert.Equal(t, "2026-03-01T12:00:00Z", formatted)
}
