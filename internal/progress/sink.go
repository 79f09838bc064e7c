package progress

import "context"

// Sink consumes batches of entries. Implementations must be safe for repeated
// calls, honor ctx deadlines, and may be invoked concurrently.
type Sink interface {
	Consume(ctx context.Context, batch []Entry) error
	Close(ctx context.Context) error
}

// Emitter publishes individual entries; Hub satisfies this interface so
// trackers can remain agnostic about how lines are buffered or written.
// Implementations shared between trackers must be safe for concurrent use.
type Emitter interface {
	Emit(e Entry)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Entry)

// Emit calls f(e).
func (f EmitterFunc) Emit(e Entry) {
	f(e)
}

type discardEmitter struct{}

func (discardEmitter) Emit(Entry) {}
