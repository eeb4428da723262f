package domain

import "time"

// ScheduleIndexRebuild identifies the periodic rebuild of every user's index.
const ScheduleIndexRebuild = "index-rebuild"

// RebuildSchedule is the persisted state of a periodic rebuild. It survives
// restarts, so a rebuild that fell due while nothing was running happens on
// the next start.
type RebuildSchedule struct {
	// ID names the schedule.
	ID string

	// Interval is the time between the end of one pass and the next.
	Interval time.Duration

	// LastRun is when the last pass started.
	LastRun time.Time

	// NextRun is when the next pass is due. Zero means due now.
	NextRun time.Time

	// LastSuccess is when a pass last finished without error.
	LastSuccess time.Time

	// LastError is the error of the last pass, empty when it succeeded.
	LastError string
}

// Due reports whether a pass should start at now.
func (s *RebuildSchedule) Due(now time.Time) bool {
	return s.NextRun.IsZero() || !s.NextRun.After(now)
}

// Reschedule sets the interval. A changed interval restarts the countdown
// from now.
func (s *RebuildSchedule) Reschedule(interval time.Duration, now time.Time) {
	if s.Interval == interval && !s.NextRun.IsZero() {
		return
	}
	s.Interval = interval
	s.NextRun = now.Add(interval)
}

// Complete records a finished pass and sets the next due time.
func (s *RebuildSchedule) Complete(run RebuildRun) {
	s.LastRun = run.StartedAt
	s.LastError = run.Error
	if run.Error == "" {
		s.LastSuccess = run.EndedAt
	}
	s.NextRun = run.EndedAt.Add(s.Interval)
}

// RebuildRun records one pass over every user with documents.
type RebuildRun struct {
	// ScheduleID is the schedule that triggered the pass.
	ScheduleID string

	StartedAt time.Time
	EndedAt   time.Time

	// UsersRebuilt counts users whose index was rebuilt.
	UsersRebuilt int

	// Error joins the per-user failures, empty when every user succeeded.
	Error string
}

// Succeeded reports whether every user was rebuilt.
func (r RebuildRun) Succeeded() bool {
	return r.Error == ""
}

// Duration is how long the pass took.
func (r RebuildRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds periodic rebuild configuration.
type SchedulerConfig struct {
	// Interval between passes. Zero disables periodic rebuilds.
	Interval time.Duration
}

// Enabled reports whether periodic rebuilds run.
func (c SchedulerConfig) Enabled() bool {
	return c.Interval > 0
}

// SchedulerConfigFromSettings takes the interval from rebuild settings.
func SchedulerConfigFromSettings(s Settings) SchedulerConfig {
	return SchedulerConfig{Interval: s.Rebuild.Interval}
}
