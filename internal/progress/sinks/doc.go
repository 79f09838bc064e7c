// Package sinks implements concrete progress consumers: a zap-backed log
// sink, Prometheus emission counters, and an in-memory recorder. Each sink
// satisfies the progress.Sink interface and is safe for repeated
// Consume/Close cycles.
package sinks
