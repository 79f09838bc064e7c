package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/tracklog/internal/progress"
)

// Recorder keeps every consumed entry in memory for callers that assert on
// the exact lines a workload emitted.
type Recorder struct {
	mu      sync.Mutex
	entries []progress.Entry
	closed  bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Consume appends the batch.
func (r *Recorder) Consume(ctx context.Context, batch []progress.Entry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("recorder consume: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, batch...)
	return nil
}

// Close marks the recorder closed; recorded entries stay readable.
func (r *Recorder) Close(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []progress.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Entry(nil), r.entries...)
}

// Texts returns the formatted lines recorded so far.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Text)
	}
	return out
}

// Closed reports whether Close has been called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
