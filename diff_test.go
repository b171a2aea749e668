package ntree

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyChanges writes every change in changes into tr.
func applyChanges(tr *Tree, changes []*Change) {
	for _, ch := range changes {
		forEachCell(ch.Interval, func(pos []int64) bool {
			tr.Set(pos, ch.Type == Add)
			return true
		})
	}
}

func sortedStrings(changes []*Change) []string {
	out := make([]string, len(changes))
	for i, ch := range changes {
		out[i] = ch.String()
	}
	sort.Strings(out)
	return out
}

func diffAndAssertLength(ctx context.Context, t *testing.T, prev, cur *Tree, expected int) []*Change {
	t.Helper()
	changes, err := Diff(ctx, prev, cur)
	require.NoError(t, err)
	require.Len(t, changes, expected)

	pchanges, err := ParallelDiff(ctx, prev, cur, 4)
	require.NoError(t, err)
	require.Equal(t, sortedStrings(changes), sortedStrings(pchanges))
	return changes
}

func TestSimpleEquals(t *testing.T) {
	ctx := context.Background()
	a := newTestTree(t, []int{8, 8}, 2)
	b := newTestTree(t, []int{8, 8}, 2)

	diffAndAssertLength(ctx, t, a, b, 0)

	a.Set([]int64{3, 20}, true)
	b.Set([]int64{3, 20}, true)
	diffAndAssertLength(ctx, t, a, b, 0)
}

func TestSimpleAddRemove(t *testing.T) {
	ctx := context.Background()
	a := newTestTree(t, []int{8, 8}, 2)
	b := a.Clone()
	b.Set([]int64{3, 20}, true)

	changes := diffAndAssertLength(ctx, t, a, b, 1)
	assert.Equal(t, Add, changes[0].Type)
	assert.Equal(t, Interval{Min: []int64{3, 20}, Max: []int64{3, 20}}, changes[0].Interval)

	changes = diffAndAssertLength(ctx, t, b, a, 1)
	assert.Equal(t, Remove, changes[0].Type)
	assert.Equal(t, "Remove [3,3]x[20,20]", changes[0].String())
}

func TestUniformRegionDiff(t *testing.T) {
	ctx := context.Background()
	a := newTestTree(t, []int{8, 8}, 2)
	b := a.Clone()

	region := Interval{Min: []int64{16, 0}, Max: []int64{31, 15}}
	forEachCell(region, func(pos []int64) bool {
		b.Set(pos, true)
		return true
	})

	changes := diffAndAssertLength(ctx, t, a, b, 1)
	assert.Equal(t, Add, changes[0].Type)
	assert.Equal(t, region, changes[0].Interval)

	// Clearing one cell splits the region: three whole tiles plus the 63
	// remaining cells of the fourth.
	b.Set([]int64{17, 1}, false)
	changes = diffAndAssertLength(ctx, t, a, b, 3+63)
	applyChanges(a, changes)
	assertSameContent(t, a, b)
}

func assertSameContent(t testing.TB, a, b *Tree) {
	t.Helper()
	require.Equal(t, a.Bounds(), b.Bounds())
	forEachCell(a.Bounds(), func(pos []int64) bool {
		require.Equal(t, b.Get(pos), a.Get(pos), "position %v", pos)
		return true
	})
}

func TestDiffApplies(t *testing.T) {
	runTestWithTileShapes(t, tileShapesAll, func(t *testing.T, shape []int) {
		ctx := context.Background()
		r := rand.New(rand.NewSource(99))
		prev := randomTree(t, shape, 2, 200, 1)
		cur := prev.Clone()
		for i := 0; i < 200; i++ {
			cur.Set(randPos(r, cur), r.Intn(2) == 0)
		}

		changes, err := Diff(ctx, prev, cur)
		require.NoError(t, err)
		pchanges, err := ParallelDiff(ctx, prev, cur, 0)
		require.NoError(t, err)
		require.Equal(t, sortedStrings(changes), sortedStrings(pchanges))

		applyChanges(prev, changes)
		assertSameContent(t, prev, cur)
		assertCompact(t, prev)

		again, err := Diff(ctx, prev, cur)
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}

func TestDiffDifferentHeights(t *testing.T) {
	ctx := context.Background()
	prev := newTestTree(t, []int{8, 8}, 1)
	prev.Set([]int64{2, 2}, true)
	prev.Set([]int64{9, 9}, true)

	cur := prev.Clone()
	cur.Grow(0)
	cur.Grow(0)
	cur.Set([]int64{40, 3}, true)
	forEachCell(Interval{Min: []int64{16, 16}, Max: []int64{31, 31}}, func(pos []int64) bool {
		cur.Set(pos, true)
		return true
	})
	cur.Set([]int64{2, 2}, false)

	changes := diffAndAssertLength(ctx, t, prev, cur, 3)
	assert.Equal(t, []string{
		"Add [16,31]x[16,31]",
		"Add [40,40]x[3,3]",
		"Remove [2,2]x[2,2]",
	}, sortedStrings(changes))

	reverse := diffAndAssertLength(ctx, t, cur, prev, 3)
	assert.Equal(t, []string{
		"Add [2,2]x[2,2]",
		"Remove [16,31]x[16,31]",
		"Remove [40,40]x[3,3]",
	}, sortedStrings(reverse))
}

func TestDiffIncompatible(t *testing.T) {
	ctx := context.Background()
	a := newTestTree(t, []int{8, 8}, 1)
	b := newTestTree(t, []int{16, 4}, 1)

	_, err := Diff(ctx, a, b)
	require.ErrorIs(t, err, ErrIncompatibleTrees)
	_, err = ParallelDiff(ctx, a, b, 2)
	require.ErrorIs(t, err, ErrIncompatibleTrees)

	c := newTestTree(t, []int{8, 8, 1}, 1)
	_, err = Diff(ctx, a, c)
	require.ErrorIs(t, err, ErrIncompatibleTrees)
}

func TestDiffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := randomTree(t, []int{8, 8}, 2, 50, 1)
	b := randomTree(t, []int{8, 8}, 2, 50, 2)

	_, err := Diff(ctx, a, b)
	require.ErrorIs(t, err, context.Canceled)
	_, err = ParallelDiff(ctx, a, b, 2)
	require.ErrorIs(t, err, context.Canceled)
}
