package progress

import "github.com/JakeFAU/tracklog/internal/unit"

// Progress is the capability a long-running operation reports through. Each
// value represents one task; AddChild splits off an independent sub-task.
type Progress interface {
	AddChild(name string) Progress
	Init(total *int, u unit.Unit)
	Set(step int)
	IncBy(delta int)
	Message(level MessageLevel, text string)
}

// Some returns a pointer to n for optional totals and depths.
func Some(n int) *int {
	return &n
}

// Discard is a Progress that reports nothing.
var Discard Progress = discard{}

type discard struct{}

func (discard) AddChild(string) Progress { return discard{} }
func (discard) Init(*int, unit.Unit) {}
func (discard) Set(int) {}
func (discard) IncBy(int) {}
func (discard) Message(MessageLevel, string) {}
