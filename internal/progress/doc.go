// Package progress provides the hierarchical progress-reporting capability and
// Log, a tracker that renders steps and status messages as throttled log
// lines. Lines are handed to an Emitter; Hub is the standard Emitter, batching
// entries on a background goroutine and fanning them out to pluggable sinks
// such as zap or Prometheus.
package progress
