package entity

import (
	"time"
)

// Resource is a bookable, time-scheduled, capacity-limited entity.
// The engine only ever reads it, except for the row lock taken while
// a reservation is being committed.
type Resource struct {
	Base
	ScheduledAt     time.Time `db:"scheduled_at"`
	DurationMinutes int       `db:"duration_minutes"`
	Capacity        int       `db:"capacity"`
}

// Expired reports whether the resource's scheduled time has already
// passed relative to now. Comparisons are done in UTC by the callers.
func (r *Resource) Expired(now time.Time) bool {
	return !r.ScheduledAt.After(now)
}
