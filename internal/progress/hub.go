package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HubConfig controls buffering and batching for the Hub.
//   - BufferSize: size of the internal channel (default 1024).
//   - MaxBatchEntries: flush once this many entries queue (default 64).
//   - MaxBatchWait: longest an entry waits for its batch to fill (default 100ms).
//   - SinkTimeout: per-sink timeout while flushing, and the longest a message
//     waits for buffer space (default 5s).
//   - BaseContext: parent context passed to sink calls (defaults to context.Background()).
//   - Logger: optional structured logger used for warnings.
type HubConfig struct {
	BufferSize      int
	MaxBatchEntries int
	MaxBatchWait    time.Duration
	SinkTimeout     time.Duration
	BaseContext     context.Context
	Logger          *zap.Logger
}

const (
	defaultBufferSize      = 1024
	defaultMaxBatchEntries = 64
	defaultMaxBatchWait    = 100 * time.Millisecond
	defaultSinkTimeout     = 5 * time.Second
	dropLogInterval        = 5 * time.Second
)

// HubStats reports how many entries a Hub accepted, dropped for
// backpressure, and discarded as invalid.
type HubStats struct {
	Accepted int64
	Dropped  int64
	Invalid  int64
}

// Hub buffers entries from any number of trackers and fans them out to the
// registered sinks in batches. It is safe for concurrent use by multiple
// goroutines and never blocks callers.
type Hub struct {
	cfg    HubConfig
	sinks  []Sink
	queue  chan Entry
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger

	accepted     atomic.Int64
	dropped      atomic.Int64
	invalid      atomic.Int64
	droppedSince atomic.Int64
	dropLimiter  rateLimiter
	closed       atomic.Bool

	closeOnce sync.Once
	closeCtx  context.Context
}

var _ Emitter = (*Hub)(nil)

// NewHub starts the background batching goroutine for sinks. The returned Hub
// accepts entries immediately.
func NewHub(cfg HubConfig, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.MaxBatchEntries <= 0 {
		cfg.MaxBatchEntries = defaultMaxBatchEntries
	}
	if cfg.MaxBatchWait <= 0 {
		cfg.MaxBatchWait = defaultMaxBatchWait
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Hub{
		cfg:         cfg,
		sinks:       append([]Sink(nil), sinks...),
		queue:       make(chan Entry, cfg.BufferSize),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      cfg.Logger,
		dropLimiter: rateLimiter{interval: dropLogInterval},
	}
	go h.run()
	return h
}

// Emit queues e for the sinks. Entries without a timestamp are stamped with
// the current time. Step entries never block: when the buffer is full they
// are dropped and a rate-limited warning is logged. Message entries are not
// throttled upstream, so they wait up to SinkTimeout for buffer space and are
// only dropped if the sinks stall longer than that. Invalid entries and
// entries emitted after Close are discarded.
func (h *Hub) Emit(e Entry) {
	if h == nil || h.closed.Load() {
		return
	}
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	if err := e.Validate(); err != nil {
		h.invalid.Add(1)
		h.logger.Warn("discarding invalid progress entry", zap.Error(err))
		return
	}
	select {
	case h.queue <- e:
		h.accepted.Add(1)
		return
	default:
	}
	if e.Kind == KindStep {
		h.drop(e)
		return
	}

	timer := time.NewTimer(h.cfg.SinkTimeout)
	defer timer.Stop()
	select {
	case h.queue <- e:
		h.accepted.Add(1)
	case <-timer.C:
		h.drop(e)
	case <-h.stopCh:
		h.drop(e)
	}
}

func (h *Hub) drop(e Entry) {
	h.dropped.Add(1)
	h.droppedSince.Add(1)
	if e.Kind != KindStep {
		h.logger.Warn("progress message dropped, sinks stalled",
			zap.String("tracker", e.Name),
			zap.String("kind", string(e.Kind)))
	}
	if h.dropLimiter.Allow(time.Now()) {
		h.logger.Warn("progress entries dropped due to backpressure",
			zap.Int64("dropped", h.droppedSince.Swap(0)))
	}
}

// Stats returns running totals of accepted, dropped and invalid entries.
func (h *Hub) Stats() HubStats {
	if h == nil {
		return HubStats{}
	}
	return HubStats{
		Accepted: h.accepted.Load(),
		Dropped:  h.dropped.Load(),
		Invalid:  h.invalid.Load(),
	}
}

// Close stops intake, flushes whatever is queued, closes the sinks and waits
// for the background goroutine. Repeated calls only wait.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.stopCh)
	})
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub close wait: %w", ctx.Err())
	}
}

// run owns the pending batch. The flush deadline is armed by the first entry
// of a batch so a steady trickle cannot postpone delivery indefinitely.
func (h *Hub) run() {
	defer close(h.doneCh)
	pending := make([]Entry, 0, h.cfg.MaxBatchEntries)
	deadline := time.NewTimer(h.cfg.MaxBatchWait)
	deadline.Stop()
	armed := false
	for {
		select {
		case e := <-h.queue:
			pending = append(pending, e)
			switch {
			case len(pending) >= h.cfg.MaxBatchEntries:
				pending = h.flush(pending)
				deadline.Stop()
				armed = false
			case !armed:
				deadline.Reset(h.cfg.MaxBatchWait)
				armed = true
			}
		case <-deadline.C:
			armed = false
			pending = h.flush(pending)
		case <-h.stopCh:
			deadline.Stop()
			h.drain(pending)
			return
		}
	}
}

func (h *Hub) drain(pending []Entry) {
	for {
		select {
		case e := <-h.queue:
			pending = append(pending, e)
			if len(pending) >= h.cfg.MaxBatchEntries {
				pending = h.flush(pending)
			}
		default:
			h.flush(pending)
			h.closeSinks()
			return
		}
	}
}

// flush hands a copy of batch to every sink and returns batch truncated for
// reuse.
func (h *Hub) flush(batch []Entry) []Entry {
	if len(batch) == 0 {
		return batch
	}
	out := append([]Entry(nil), batch...)
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(h.cfg.BaseContext, h.cfg.SinkTimeout)
		if err := sink.Consume(ctx, out); err != nil {
			h.logger.Warn("progress sink consume failed", zap.Error(err))
		}
		cancel()
	}
	return batch[:0]
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("progress sink close failed", zap.Error(err))
		}
	}
}

type rateLimiter struct {
	interval time.Duration
	last     atomic.Int64
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r == nil || r.interval <= 0 {
		return true
	}
	nano := now.UnixNano()
	last := r.last.Load()
	if nano-last < r.interval.Nanoseconds() {
		return false
	}
	return r.last.CompareAndSwap(last, nano)
}
