package sinks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/tracklog/internal/progress"
)

// PrometheusSink counts what the trackers emitted. It owns collectors for
// entries by kind and level, entries by nesting depth, the last step line of
// each root tracker, and delivered batch sizes.
type PrometheusSink struct {
	entries   *prometheus.CounterVec
	byDepth   *prometheus.CounterVec
	rootStep  *prometheus.GaugeVec
	batchSize prometheus.Histogram
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklog_entries_total",
			Help: "Progress lines emitted, partitioned by kind and level.",
		}, []string{"kind", "level"}),
		byDepth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklog_entries_by_depth_total",
			Help: "Progress lines emitted, partitioned by tracker nesting depth.",
		}, []string{"depth"}),
		rootStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracklog_root_step",
			Help: "Step carried by the latest emitted line of each root tracker.",
		}, []string{"tracker"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracklog_sink_batch_entries",
			Help:    "Entries per batch delivered to sinks.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.entries,
		s.byDepth,
		s.rootStep,
		s.batchSize,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. It is safe for concurrent
// use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Entry) error {
	if len(batch) == 0 {
		return nil
	}
	s.batchSize.Observe(float64(len(batch)))
	for _, e := range batch {
		s.entries.WithLabelValues(string(e.Kind), e.Level.String()).Inc()
		s.byDepth.WithLabelValues(strconv.Itoa(e.Depth)).Inc()
		if e.Kind == progress.KindStep && e.Depth == 0 {
			s.rootStep.WithLabelValues(e.Name).Set(float64(e.Step))
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
