package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/tracklog/internal/unit"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type recorder struct {
	entries []Entry
}

func (r *recorder) Emit(e Entry) {
	r.entries = append(r.entries, e)
}

func (r *recorder) texts() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Text)
	}
	return out
}

func newTestLog(name string, maxDepth *int) (*Log, *recorder, *fakeClock) {
	rec := &recorder{}
	clk := newFakeClock()
	return NewLog(name, maxDepth, LogConfig{Emitter: rec, Clock: clk}), rec, clk
}

// TestLogThrottleScenario walks the set/emit/suppress/emit sequence.
func TestLogThrottleScenario(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("build", nil)

	l.Set(0)
	l.Set(1)
	clk.Advance(600 * time.Millisecond)
	l.Set(2)

	require.Equal(t, []string{"build → 0", "build → 2"}, rec.texts())
	require.Equal(t, 2, l.Step())
	for _, e := range rec.entries {
		require.Equal(t, LevelInfo, e.Level)
		require.Equal(t, KindStep, e.Kind)
		require.Equal(t, "build", e.Name)
	}
	require.Equal(t, 2, rec.entries[1].Step)
	require.Equal(t, clk.Now(), rec.entries[1].TS)
}

// TestLogBurstEmitsOnce ensures only the first call of a sub-interval burst emits.
func TestLogBurstEmitsOnce(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("burst", nil)
	for i := 0; i < 10; i++ {
		l.Set(i)
		clk.Advance(40 * time.Millisecond)
	}
	require.Equal(t, []string{"burst → 0"}, rec.texts())

	clk.Advance(200 * time.Millisecond)
	l.Set(99)
	require.Equal(t, []string{"burst → 0", "burst → 99"}, rec.texts())
}

// TestLogIntervalBoundaryIsExclusive checks that exactly one interval is not enough.
func TestLogIntervalBoundaryIsExclusive(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("edge", nil)
	l.Set(1)
	clk.Advance(DefaultEmitInterval)
	l.Set(2)
	require.Len(t, rec.entries, 1)

	clk.Advance(time.Nanosecond)
	l.Set(3)
	require.Equal(t, []string{"edge → 1", "edge → 3"}, rec.texts())
}

// TestLogSuppressedCallsDoNotResetThrottle verifies that only emissions move the throttle clock.
func TestLogSuppressedCallsDoNotResetThrottle(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("task", nil)
	l.Set(1)
	first, ok := l.LastEmit()
	require.True(t, ok)

	clk.Advance(300 * time.Millisecond)
	l.Set(2)
	last, _ := l.LastEmit()
	require.Equal(t, first, last)

	clk.Advance(300 * time.Millisecond)
	l.Set(3)
	require.Equal(t, []string{"task → 1", "task → 3"}, rec.texts())
}

// TestLogClockRegressionSuppresses treats a backwards clock as zero elapsed time.
func TestLogClockRegressionSuppresses(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("skew", nil)
	l.Set(1)
	clk.Advance(-time.Hour)
	require.NotPanics(t, func() { l.Set(2) })
	require.Len(t, rec.entries, 1)
	require.Equal(t, 2, l.Step())

	// The throttle still measures from the last emission, so recovery needs
	// the clock to pass it again.
	clk.Advance(time.Hour + time.Second)
	l.Set(3)
	require.Equal(t, []string{"skew → 1", "skew → 3"}, rec.texts())
}

// TestLogInitFormats covers the three emission formats.
func TestLogInitFormats(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("build", nil)

	l.Init(Some(100), nil)
	l.Set(50)

	clk.Advance(time.Second)
	l.Init(Some(100), unit.Label("files"))
	l.Set(60)

	clk.Advance(time.Second)
	l.Init(nil, unit.Label("files"))
	l.Set(70)

	clk.Advance(time.Second)
	l.Init(nil, nil)
	l.Set(80)

	require.Equal(t, []string{
		"build → 50 / 100",
		"build → 60/100 files",
		"build → 70 files",
		"build → 80",
	}, rec.texts())
}

// TestLogInitLeavesStepAndThrottle ensures Init touches neither the step nor the throttle.
func TestLogInitLeavesStepAndThrottle(t *testing.T) {
	t.Parallel()

	l, rec, _ := newTestLog("build", nil)
	l.Set(5)
	l.Init(Some(10), unit.Bytes())

	require.Equal(t, 5, l.Step())
	total, ok := l.Total()
	require.True(t, ok)
	require.Equal(t, 10, total)
	require.NotNil(t, l.Unit())

	l.Set(6)
	require.Len(t, rec.entries, 1)
}

// TestLogInitCopiesTotal guards against aliasing the caller's variable.
func TestLogInitCopiesTotal(t *testing.T) {
	t.Parallel()

	l, _, _ := newTestLog("build", nil)
	n := 10
	l.Init(&n, nil)
	n = 20
	total, _ := l.Total()
	require.Equal(t, 10, total)
}

// TestLogIncBy checks that IncBy builds on the current step and honors the throttle.
func TestLogIncBy(t *testing.T) {
	t.Parallel()

	l, rec, clk := newTestLog("copy", nil)
	l.Set(10)
	l.IncBy(5)
	require.Equal(t, 15, l.Step())
	require.Equal(t, []string{"copy → 10"}, rec.texts())

	clk.Advance(time.Second)
	l.IncBy(-3)
	require.Equal(t, 12, l.Step())
	require.Equal(t, []string{"copy → 10", "copy → 12"}, rec.texts())
}

// TestLogFirstIncByEmits ensures a fresh tracker emits on its first IncBy.
func TestLogFirstIncByEmits(t *testing.T) {
	t.Parallel()

	l, rec, _ := newTestLog("fresh", nil)
	l.IncBy(3)
	require.Equal(t, []string{"fresh → 3"}, rec.texts())
}

// TestLogChildNamingAndIndependence verifies hierarchical names and isolated state.
func TestLogChildNamingAndIndependence(t *testing.T) {
	t.Parallel()

	root, rec, clk := newTestLog("build", Some(3))
	root.Init(Some(4), nil)
	root.Set(1)

	child := root.NewChild("compile")
	require.Equal(t, "build::compile", child.Name())
	require.Equal(t, 1, child.Depth())
	require.Equal(t, 3, child.MaxDepth())
	require.Equal(t, 0, child.Step())
	_, ok := child.Total()
	require.False(t, ok)
	require.Nil(t, child.Unit())
	_, emitted := child.LastEmit()
	require.False(t, emitted)

	grandchild := child.NewChild("link")
	require.Equal(t, "build::compile::link", grandchild.Name())
	require.Equal(t, 2, grandchild.Depth())

	// The child's throttle is its own: it emits even though the root just did.
	child.Init(Some(99), unit.Bytes())
	child.Set(42)
	require.Equal(t, []string{"build → 1 / 4", "build::compile → 42 B/99 B"}, rec.texts())

	require.Equal(t, 1, root.Step())
	total, _ := root.Total()
	require.Equal(t, 4, total)
	require.Nil(t, root.Unit())

	clk.Advance(time.Second)
	root.Set(2)
	require.Equal(t, "build → 2 / 4", rec.entries[len(rec.entries)-1].Text)
}

// TestLogAddChildReturnsLog ensures the Progress-typed factory yields a *Log.
func TestLogAddChildReturnsLog(t *testing.T) {
	t.Parallel()

	root, _, _ := newTestLog("root", nil)
	child, ok := root.AddChild("leaf").(*Log)
	require.True(t, ok)
	require.Equal(t, "root::leaf", child.Name())
}

// TestLogDepthGating verifies trackers below max depth stay silent on Set and IncBy.
func TestLogDepthGating(t *testing.T) {
	t.Parallel()

	root, rec, _ := newTestLog("build", Some(1))
	child := root.NewChild("a")
	grandchild := child.NewChild("b")

	root.Set(1)
	child.Set(2)
	grandchild.Set(3)
	grandchild.IncBy(4)

	require.Equal(t, []string{"build → 1", "build::a → 2"}, rec.texts())
	require.Equal(t, 7, grandchild.Step())
	_, emitted := grandchild.LastEmit()
	require.False(t, emitted)
}

// TestLogMaxDepthZero allows only the root to emit.
func TestLogMaxDepthZero(t *testing.T) {
	t.Parallel()

	root, rec, _ := newTestLog("only", Some(0))
	root.NewChild("hidden").Set(1)
	root.Set(1)
	require.Equal(t, []string{"only → 1"}, rec.texts())
}

// TestLogMessageLevels checks glyphs and levels, regardless of throttle or depth.
func TestLogMessageLevels(t *testing.T) {
	t.Parallel()

	root, rec, _ := newTestLog("build", Some(0))
	root.Set(1)

	root.Message(MessageFailure, "disk full")
	root.Message(MessageInfo, "starting")
	root.Message(MessageSuccess, "finished")

	deep := root.NewChild("deep")
	deep.Message(MessageInfo, "still visible")

	require.Equal(t, []string{
		"build → 1",
		"𐄂build → disk full",
		"ℹbuild → starting",
		"✓build → finished",
		"ℹbuild::deep → still visible",
	}, rec.texts())

	require.Equal(t, LevelError, rec.entries[1].Level)
	require.Equal(t, KindFailure, rec.entries[1].Kind)
	require.Equal(t, LevelInfo, rec.entries[2].Level)
	require.Equal(t, KindInfo, rec.entries[2].Kind)
	require.Equal(t, LevelInfo, rec.entries[3].Level)
	require.Equal(t, KindSuccess, rec.entries[3].Kind)
	require.Equal(t, 1, rec.entries[4].Depth)

	// Messages never move the throttle clock.
	_, emitted := deep.LastEmit()
	require.False(t, emitted)
}

// TestLogShorthands maps Info, Done and Fail onto Message.
func TestLogShorthands(t *testing.T) {
	t.Parallel()

	l, rec, _ := newTestLog("job", nil)
	l.Info("a")
	l.Done("b")
	l.Fail("c")
	require.Equal(t, []string{"ℹjob → a", "✓job → b", "𐄂job → c"}, rec.texts())
}

// TestNewLogDefaults ensures a zero LogConfig is usable.
func TestNewLogDefaults(t *testing.T) {
	t.Parallel()

	l := NewLog("quiet", nil, LogConfig{})
	require.NotPanics(t, func() {
		l.Set(1)
		l.Message(MessageFailure, "nobody listens")
	})
	_, emitted := l.LastEmit()
	require.True(t, emitted)
	require.Equal(t, DefaultEmitInterval, l.throttle.interval)
}

// TestLogCustomInterval verifies EmitInterval is inherited by children.
func TestLogCustomInterval(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	clk := newFakeClock()
	root := NewLog("fast", nil, LogConfig{Emitter: rec, Clock: clk, EmitInterval: 10 * time.Millisecond})
	child := root.NewChild("c")

	child.Set(1)
	clk.Advance(20 * time.Millisecond)
	child.Set(2)
	require.Equal(t, []string{"fast::c → 1", "fast::c → 2"}, rec.texts())
}

// TestDiscard ensures the discarding Progress accepts every call.
func TestDiscard(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		p := Discard.AddChild("x")
		p.Init(Some(1), unit.Bytes())
		p.Set(1)
		p.IncBy(1)
		p.Message(MessageFailure, "ignored")
	})
}
