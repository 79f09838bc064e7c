package progress

import "time"

// DefaultEmitInterval is the minimum spacing between step lines of a tracker.
const DefaultEmitInterval = 500 * time.Millisecond

// throttle admits at most one emission per interval. Unlike the hub's
// rateLimiter it is owned by a single tracker and needs no atomics.
type throttle struct {
	interval time.Duration
	last     time.Time
	armed    bool
}

// allow reports whether an emission at now may proceed and, if so, records
// now as the last emission. The first call always succeeds. A clock that
// moved backwards yields a zero elapsed time, which suppresses.
func (t *throttle) allow(now time.Time) bool {
	if t.armed {
		elapsed := now.Sub(t.last)
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed <= t.interval {
			return false
		}
	}
	t.last = now
	t.armed = true
	return true
}

// lastEmit returns the last admitted emission time, if any.
func (t *throttle) lastEmit() (time.Time, bool) {
	return t.last, t.armed
}
