package recalc

import "time"

// Marker flags one (user, goal) sequence as stale from a given timestamp.
// Markers are cheap to insert and are coalesced at drain time.
type Marker struct {
	ID           int64
	UserID       string
	GoalID       string
	AffectedFrom time.Time
	CreatedAt    time.Time
}
