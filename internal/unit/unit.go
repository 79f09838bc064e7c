// Package unit renders a tracker's step and optional total as display text.
package unit

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Unit renders a step, an optional total and an optional throughput.
type Unit interface {
	Display(step int, total *int, throughput *Throughput) string
}

// Throughput is a measured rate in steps per second.
type Throughput struct {
	PerSecond float64
}

// Value is the Unit implementation returned by the constructors in this
// package. The zero Value renders plain integers.
type Value struct {
	label   string
	format  func(int) string
	joiner  string
	percent bool
}

var _ Unit = Value{}

// Label renders "12/40 files".
func Label(label string) Value {
	return Value{label: label}
}

// Human renders large counts with thousands separators, e.g. "1,024/2,048 rows".
func Human(label string) Value {
	return Value{label: label, format: func(n int) string { return humanize.Comma(int64(n)) }}
}

// Bytes renders byte counts in SI units, e.g. "1.5 MB/3.0 MB".
func Bytes() Value {
	return Value{format: formatBytes}
}

// Range renders a position within a range, e.g. "3 of 10 dirs".
func Range(label string) Value {
	return Value{label: label, joiner: " of "}
}

// WithPercentage returns a copy of v that appends the completed percentage
// whenever a positive total is known.
func (v Value) WithPercentage() Value {
	v.percent = true
	return v
}

// Display implements Unit.
func (v Value) Display(step int, total *int, throughput *Throughput) string {
	var b strings.Builder
	b.WriteString(v.render(step))
	if total != nil {
		if v.joiner != "" {
			b.WriteString(v.joiner)
		} else {
			b.WriteByte('/')
		}
		b.WriteString(v.render(*total))
	}
	if v.label != "" {
		b.WriteByte(' ')
		b.WriteString(v.label)
	}
	if v.percent && total != nil && *total > 0 {
		pct := float64(step) / float64(*total) * 100
		b.WriteString(" [")
		b.WriteString(strconv.FormatFloat(pct, 'f', 0, 64))
		b.WriteString("%]")
	}
	if throughput != nil {
		b.WriteString(" | ")
		b.WriteString(v.render(int(throughput.PerSecond)))
		b.WriteString("/s")
	}
	return b.String()
}

func (v Value) render(n int) string {
	if v.format == nil {
		return strconv.Itoa(n)
	}
	return v.format(n)
}

func formatBytes(n int) string {
	if n < 0 {
		// -(n+1) cannot overflow, even for math.MinInt.
		return "-" + humanize.Bytes(uint64(-(n+1))+1)
	}
	return humanize.Bytes(uint64(n))
}
