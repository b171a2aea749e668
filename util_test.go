package ntree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSideLength(t *testing.T) {
	require.Equal(t, int64(8), sideLength(8, 0))
	require.Equal(t, int64(32), sideLength(8, 2))
	require.Equal(t, int64(1)<<40, sideLength(1, 40))
}

func TestForEachCellOrder(t *testing.T) {
	var got [][]int64
	complete := forEachCell(Interval{Min: []int64{2, 5}, Max: []int64{3, 6}}, func(pos []int64) bool {
		got = append(got, append([]int64(nil), pos...))
		return true
	})
	require.True(t, complete)
	require.Equal(t, [][]int64{{2, 5}, {3, 5}, {2, 6}, {3, 6}}, got)

	calls := 0
	complete = forEachCell(Interval{Min: []int64{0}, Max: []int64{9}}, func([]int64) bool {
		calls++
		return calls < 3
	})
	require.False(t, complete)
	require.Equal(t, 3, calls)
}

func TestInterval(t *testing.T) {
	iv := Interval{Min: []int64{0, 4}, Max: []int64{7, 11}}
	require.Equal(t, 2, iv.NumDimensions())
	require.Equal(t, int64(8), iv.Dimension(1))
	require.Equal(t, int64(64), iv.NumElements())
	require.True(t, iv.Contains([]int64{7, 4}))
	require.False(t, iv.Contains([]int64{8, 4}))
	require.True(t, iv.ContainsInterval(Interval{Min: []int64{1, 5}, Max: []int64{2, 11}}))
	require.False(t, iv.ContainsInterval(Interval{Min: []int64{1, 3}, Max: []int64{2, 11}}))
	require.Equal(t, "[0,7]x[4,11]", iv.String())

	c := iv.Copy()
	c.Min[0] = 1
	require.Equal(t, int64(0), iv.Min[0])
	require.False(t, iv.Equal(c))
	require.True(t, iv.Equal(iv.Copy()))
}
