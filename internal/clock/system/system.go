// Package system provides the wall-clock time source used by trackers.
package system

import "time"

// Clock implements progress.Clock using the system wall clock. Trackers
// measure their emit interval on this clock, and a reading earlier than the
// last emission counts as zero elapsed time, which suppresses the line. For
// that to happen when the host clock is stepped back, readings must carry no
// monotonic component.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current wall-clock time in UTC. UTC() drops the monotonic
// reading, so durations between readings follow wall-clock adjustments and
// may be negative.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
