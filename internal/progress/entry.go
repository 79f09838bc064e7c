package progress

import (
	"errors"
	"fmt"
	"time"
)

// Level is the severity a log sink should use for an Entry.
type Level int8

// Supported entry levels.
const (
	LevelInfo Level = iota
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// Kind records which tracker operation produced an Entry.
type Kind string

// Supported entry kinds.
const (
	KindStep    Kind = "step"
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// MessageLevel classifies one-shot status messages.
type MessageLevel int8

// Message levels accepted by Progress.Message.
const (
	MessageInfo MessageLevel = iota
	MessageSuccess
	MessageFailure
)

// String returns the lowercase message level name.
func (m MessageLevel) String() string {
	switch m {
	case MessageInfo:
		return "info"
	case MessageSuccess:
		return "success"
	case MessageFailure:
		return "failure"
	default:
		return fmt.Sprintf("message_level(%d)", int8(m))
	}
}

// Glyphs prefixed to message lines.
const (
	InfoGlyph    = "ℹ"
	SuccessGlyph = "✓"
	FailureGlyph = "𐄂"
)

// Separator sits between a tracker name and its rendered value.
const Separator = " → "

// Entry is a single rendered log line plus the tracker metadata it came from.
type Entry struct {
	// TS is the clock reading taken when the line was produced.
	TS time.Time
	// Level is the severity the sink should log at.
	Level Level
	// Kind is the operation that produced the line.
	Kind Kind
	// Name is the full hierarchical tracker name.
	Name string
	// Depth is the tracker nesting level; roots are 0.
	Depth int
	// Step is the reported step for KindStep entries.
	Step int
	// Text is the formatted line, e.g. "build → 50 / 100".
	Text string
}

// Validate performs coarse validation on Entry payloads.
func (e Entry) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Text == "" {
		return errors.New("text is required")
	}
	switch e.Level {
	case LevelInfo, LevelError:
	default:
		return fmt.Errorf("unknown level %d", int8(e.Level))
	}
	switch e.Kind {
	case KindStep, KindInfo, KindSuccess, KindFailure:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Depth < 0 {
		return errors.New("depth must be >= 0")
	}
	return nil
}
