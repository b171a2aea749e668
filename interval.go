package ntree

import (
	"fmt"
	"strings"
)

// Interval is a closed axis-aligned box: every position p with
// Min[d] <= p[d] <= Max[d] on all axes.
type Interval struct {
	Min []int64
	Max []int64
}

func newInterval(n int) Interval {
	return Interval{
		Min: make([]int64, n),
		Max: make([]int64, n),
	}
}

func (iv Interval) NumDimensions() int {
	return len(iv.Min)
}

// Dimension returns the side length along axis d.
func (iv Interval) Dimension(d int) int64 {
	return iv.Max[d] - iv.Min[d] + 1
}

// NumElements returns the number of grid cells in the interval.
func (iv Interval) NumElements() int64 {
	size := int64(1)
	for d := range iv.Min {
		size *= iv.Dimension(d)
	}
	return size
}

func (iv Interval) Contains(pos []int64) bool {
	for d := range iv.Min {
		if pos[d] < iv.Min[d] || pos[d] > iv.Max[d] {
			return false
		}
	}
	return true
}

// ContainsInterval reports whether o lies entirely inside iv.
func (iv Interval) ContainsInterval(o Interval) bool {
	for d := range iv.Min {
		if o.Min[d] < iv.Min[d] || o.Max[d] > iv.Max[d] {
			return false
		}
	}
	return true
}

func (iv Interval) Equal(o Interval) bool {
	if len(iv.Min) != len(o.Min) {
		return false
	}
	for d := range iv.Min {
		if iv.Min[d] != o.Min[d] || iv.Max[d] != o.Max[d] {
			return false
		}
	}
	return true
}

// Copy returns an Interval that shares no memory with iv.
func (iv Interval) Copy() Interval {
	return Interval{
		Min: append([]int64(nil), iv.Min...),
		Max: append([]int64(nil), iv.Max...),
	}
}

func (iv Interval) String() string {
	var sb strings.Builder
	for d := range iv.Min {
		if d > 0 {
			sb.WriteString("x")
		}
		fmt.Fprintf(&sb, "[%d,%d]", iv.Min[d], iv.Max[d])
	}
	return sb.String()
}
