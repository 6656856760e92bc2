package sprint

import "time"

// DefaultClosedGrace is the window after completion during which a closed
// sprint is still refreshed from the tracker. Trackers sometimes
// retroactively adjust a sprint shortly after close, so very recently
// closed sprints are not trusted from cache.
const DefaultClosedGrace = 6 * 24 * time.Hour

// CachePolicy decides whether a cached detailed sprint record can be
// returned without re-querying the tracker.
type CachePolicy struct {
	ClosedGrace time.Duration
}

// NewCachePolicy builds a policy with the given grace window; zero or
// negative falls back to DefaultClosedGrace.
func NewCachePolicy(closedGrace time.Duration) CachePolicy {
	if closedGrace <= 0 {
		closedGrace = DefaultClosedGrace
	}
	return CachePolicy{ClosedGrace: closedGrace}
}

// Usable reports whether rec can be served from cache at time now.
// Active and future sprints change continuously and are never usable.
// Closed sprints are usable only once the grace window after their
// completion date has passed.
func (p CachePolicy) Usable(rec *DetailedSprint, now time.Time) bool {
	if rec == nil {
		return false
	}
	if rec.Sprint.State != StateClosed || rec.Sprint.CompleteDate == nil {
		return false
	}
	return rec.Sprint.CompleteDate.Before(now.Add(-p.ClosedGrace))
}
