package progress

import (
	"math"
	"strconv"
	"time"

	"github.com/JakeFAU/tracklog/internal/clock/system"
	"github.com/JakeFAU/tracklog/internal/unit"
)

// Clock returns the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// LogConfig holds the collaborators a root tracker hands down to its children.
//   - Emitter: receives rendered lines (nil discards them).
//   - Clock: time source for the throttle (defaults to the system wall clock).
//   - EmitInterval: minimum spacing between step lines (default 500ms).
type LogConfig struct {
	Emitter      Emitter
	Clock        Clock
	EmitInterval time.Duration
}

// Log is a Progress that writes throttled step lines and immediate status
// messages to an Emitter. A Log must be used by one goroutine at a time; a
// parent and its children share no mutable state and may run concurrently.
type Log struct {
	name     string
	depth    int
	maxDepth int
	total    *int
	unit     unit.Unit
	step     int
	throttle throttle

	emitter Emitter
	clock   Clock
}

var _ Progress = (*Log)(nil)

// NewLog creates a root tracker. A nil maxDepth leaves every nesting level
// eligible to emit step lines.
func NewLog(name string, maxDepth *int, cfg LogConfig) *Log {
	if cfg.Emitter == nil {
		cfg.Emitter = discardEmitter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	if cfg.EmitInterval <= 0 {
		cfg.EmitInterval = DefaultEmitInterval
	}
	limit := math.MaxInt
	if maxDepth != nil {
		limit = *maxDepth
	}
	return &Log{
		name:     name,
		maxDepth: limit,
		throttle: throttle{interval: cfg.EmitInterval},
		emitter:  cfg.Emitter,
		clock:    cfg.Clock,
	}
}

// NewChild returns a tracker for a sub-task named "<parent>::<name>". It
// starts from a clean state and does not refer back to l.
func (l *Log) NewChild(name string) *Log {
	return &Log{
		name:     l.name + "::" + name,
		depth:    l.depth + 1,
		maxDepth: l.maxDepth,
		throttle: throttle{interval: l.throttle.interval},
		emitter:  l.emitter,
		clock:    l.clock,
	}
}

// AddChild implements Progress.
func (l *Log) AddChild(name string) Progress {
	return l.NewChild(name)
}

// Init sets the optional total and unit, replacing earlier values.
func (l *Log) Init(total *int, u unit.Unit) {
	if total != nil {
		total = Some(*total)
	}
	l.total = total
	l.unit = u
}

// Set records step and emits a line unless the tracker is nested deeper than
// its maximum depth or the previous line is less than one interval old.
func (l *Log) Set(step int) {
	l.step = step
	if l.depth > l.maxDepth {
		return
	}
	now := l.clock.Now()
	if !l.throttle.allow(now) {
		return
	}
	l.emitter.Emit(Entry{
		TS:    now,
		Level: LevelInfo,
		Kind:  KindStep,
		Name:  l.name,
		Depth: l.depth,
		Step:  step,
		Text:  l.name + Separator + l.render(step),
	})
}

// IncBy advances the step by delta, subject to the same gating as Set.
func (l *Log) IncBy(delta int) {
	l.Set(l.step + delta)
}

// Message emits text immediately, bypassing throttling and depth gating.
func (l *Log) Message(level MessageLevel, text string) {
	e := Entry{
		TS:    l.clock.Now(),
		Level: LevelInfo,
		Name:  l.name,
		Depth: l.depth,
	}
	glyph := InfoGlyph
	switch level {
	case MessageSuccess:
		glyph, e.Kind = SuccessGlyph, KindSuccess
	case MessageFailure:
		glyph, e.Kind, e.Level = FailureGlyph, KindFailure, LevelError
	default:
		e.Kind = KindInfo
	}
	e.Text = glyph + l.name + Separator + text
	l.emitter.Emit(e)
}

// Info emits an informational message.
func (l *Log) Info(text string) { l.Message(MessageInfo, text) }

// Done emits a success message.
func (l *Log) Done(text string) { l.Message(MessageSuccess, text) }

// Fail emits a failure message.
func (l *Log) Fail(text string) { l.Message(MessageFailure, text) }

// Name returns the full hierarchical name.
func (l *Log) Name() string { return l.name }

// Depth returns the nesting level; roots are 0.
func (l *Log) Depth() int { return l.depth }

// MaxDepth returns the deepest level allowed to emit step lines.
func (l *Log) MaxDepth() int { return l.maxDepth }

// Step returns the last step passed to Set or reached through IncBy.
func (l *Log) Step() int { return l.step }

// Total returns the configured total, if any.
func (l *Log) Total() (int, bool) {
	if l.total == nil {
		return 0, false
	}
	return *l.total, true
}

// Unit returns the configured unit, or nil.
func (l *Log) Unit() unit.Unit { return l.unit }

// LastEmit returns when the last step line was emitted, if ever.
func (l *Log) LastEmit() (time.Time, bool) { return l.throttle.lastEmit() }

func (l *Log) render(step int) string {
	switch {
	case l.unit != nil:
		return l.unit.Display(step, l.total, nil)
	case l.total != nil:
		return strconv.Itoa(step) + " / " + strconv.Itoa(*l.total)
	default:
		return strconv.Itoa(step)
	}
}
