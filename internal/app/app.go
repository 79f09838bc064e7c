// Package app initializes and holds the long-lived services a tracklog command
// needs: the logger, the entry hub with its sinks, the Prometheus registry and
// the optional metrics server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/tracklog/internal/clock/system"
	"github.com/JakeFAU/tracklog/internal/config"
	"github.com/JakeFAU/tracklog/internal/logging"
	"github.com/JakeFAU/tracklog/internal/metrics"
	"github.com/JakeFAU/tracklog/internal/progress"
	"github.com/JakeFAU/tracklog/internal/progress/sinks"
)

// Options overrides pieces of the wiring, mostly for tests.
//   - Logger: replaces the logger built from config.
//   - Sinks: extra sinks that receive every entry alongside the log sink.
//   - Clock: time source for trackers (defaults to the wall clock).
type Options struct {
	Logger *zap.Logger
	Sinks  []progress.Sink
	Clock  progress.Clock
}

// App holds the shared services for one command invocation.
type App struct {
	cfg      config.Config
	runID    string
	logger   *zap.Logger
	registry *prometheus.Registry
	hub      *progress.Hub
	clock    progress.Clock
	metrics  *metrics.Server
}

// NewApp wires the services described by cfg. It fails fast if the logger,
// collectors or metrics listener cannot be set up.
func NewApp(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Development, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}

	all := append([]progress.Sink{sinks.NewLogSink(logger.Named("progress")), promSink}, opts.Sinks...)
	hub := progress.NewHub(progress.HubConfig{
		BufferSize:      cfg.Hub.BufferSize,
		MaxBatchEntries: cfg.Hub.MaxBatchEntries,
		MaxBatchWait:    cfg.Hub.MaxBatchWait,
		SinkTimeout:     cfg.Hub.SinkTimeout,
		BaseContext:     context.WithoutCancel(ctx),
		Logger:          logger.Named("hub"),
	}, all...)

	clock := opts.Clock
	if clock == nil {
		clock = system.New()
	}

	a := &App{
		cfg:      cfg,
		runID:    runID,
		logger:   logger,
		registry: registry,
		hub:      hub,
		clock:    clock,
	}

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.NewServer(cfg.Metrics.Addr, registry, logger.Named("metrics"))
		if err != nil {
			return nil, errors.Join(err, hub.Close(ctx))
		}
		a.metrics = srv
		if _, err := a.metrics.Start(); err != nil {
			return nil, errors.Join(err, hub.Close(ctx))
		}
	}
	return a, nil
}

// GetLogger returns the shared zap logger, tagged with the run id.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetRegistry returns the Prometheus registry holding the sink collectors.
func (a *App) GetRegistry() *prometheus.Registry {
	return a.registry
}

// GetHub returns the hub every tracker emits into.
func (a *App) GetHub() *progress.Hub {
	return a.hub
}

// RunID identifies this invocation in logs.
func (a *App) RunID() string {
	return a.runID
}

// NewTracker creates a root tracker wired to the hub with the configured
// depth limit and emit interval.
func (a *App) NewTracker(name string) *progress.Log {
	return progress.NewLog(name, a.cfg.MaxDepth(), progress.LogConfig{
		Emitter:      a.hub,
		Clock:        a.clock,
		EmitInterval: a.cfg.Progress.EmitInterval,
	})
}

// Close drains the hub, stops the metrics server and flushes the logger.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	stats := a.hub.Stats()
	a.logger.Debug("progress hub closed",
		zap.Int64("accepted", stats.Accepted),
		zap.Int64("dropped", stats.Dropped))
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
