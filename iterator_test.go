package ntree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visit struct {
	interval    string
	level       int
	hasChildren bool
}

func drain(it *NodeIterator) []visit {
	out := []visit{}
	for it.HasNext() {
		nd := it.Next()
		out = append(out, visit{nd.Interval().String(), nd.Level(), nd.HasChildren()})
	}
	return out
}

func countNodes(nd *node) int {
	c := 1
	for _, child := range nd.children {
		c += countNodes(child)
	}
	return c
}

func randomTree(t testing.TB, shape []int, height, writes int, seed int64) *Tree {
	t.Helper()
	tr := newTestTree(t, shape, height)
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < writes; i++ {
		tr.Set(randPos(r, tr), true)
	}
	return tr
}

func TestIteratorCompleteness(t *testing.T) {
	runTestWithTileShapes(t, tileShapesAll, func(t *testing.T, shape []int) {
		tr := randomTree(t, shape, 2, 300, 11)
		bounds := tr.Bounds()

		covered := make(map[string]int)
		visited := 0
		it := tr.Iterator()
		require.Nil(t, it.Current())
		for it.HasNext() {
			nd := it.Next()
			require.Equal(t, nd, it.Current())
			visited++

			iv := nd.Interval()
			require.True(t, bounds.ContainsInterval(iv))
			for d, dim := range shape {
				require.Equal(t, sideLength(dim, nd.Level()), iv.Dimension(d))
			}
			if nd.HasChildren() {
				continue
			}
			forEachCell(iv, func(pos []int64) bool {
				covered[posKey(pos)]++
				want := nd.Value()
				if tile := nd.Tile(); tile != nil {
					want = tile.Get(pos)
				}
				require.Equal(t, want, tr.Get(pos), "position %v", pos)
				return true
			})
		}

		assert.Equal(t, countNodes(tr.root), visited)
		assert.Equal(t, int(bounds.NumElements()), len(covered))
		for k, c := range covered {
			require.Equal(t, 1, c, "cell %s covered %d times", k, c)
		}
		assert.Nil(t, it.Next())
	})
}

func TestIteratorPreOrder(t *testing.T) {
	tr := newTestTree(t, []int{8, 8}, 2)
	tr.Set([]int64{0, 0}, true)

	got := drain(tr.Iterator())
	require.Len(t, got, 1+4+4)

	assert.Equal(t, visit{"[0,31]x[0,31]", 2, true}, got[0])
	assert.Equal(t, visit{"[0,15]x[0,15]", 1, true}, got[1])
	assert.Equal(t, visit{"[0,7]x[0,7]", 0, false}, got[2])
	assert.Equal(t, visit{"[8,15]x[0,7]", 0, false}, got[3])
	assert.Equal(t, visit{"[0,7]x[8,15]", 0, false}, got[4])
	assert.Equal(t, visit{"[8,15]x[8,15]", 0, false}, got[5])
	assert.Equal(t, visit{"[16,31]x[0,15]", 1, false}, got[6])
	assert.Equal(t, visit{"[0,15]x[16,31]", 1, false}, got[7])
	assert.Equal(t, visit{"[16,31]x[16,31]", 1, false}, got[8])
}

func TestIteratorReset(t *testing.T) {
	tr := randomTree(t, []int{8, 8}, 3, 100, 5)
	it := tr.Iterator()
	first := drain(it)
	require.False(t, it.HasNext())

	it.Reset()
	require.Nil(t, it.Current())
	assert.Equal(t, first, drain(it))

	// Reset in the middle of a traversal.
	it.Reset()
	for i := 0; i < len(first)/2; i++ {
		it.Next()
	}
	it.Reset()
	assert.Equal(t, first, drain(it))
}

func TestIteratorClone(t *testing.T) {
	tr := randomTree(t, []int{8, 4}, 3, 100, 9)
	all := drain(tr.Iterator())
	require.Greater(t, len(all), 10)

	for _, k := range []int{0, 1, 5, len(all) / 2, len(all) - 1, len(all)} {
		it := tr.Iterator()
		for i := 0; i < k; i++ {
			it.Next()
		}

		c := it.Clone()
		if k > 0 {
			assert.Equal(t, it.Current().Interval().String(), c.Current().Interval().String())
		} else {
			assert.Nil(t, c.Current())
		}

		// Exhaust the clone first; the original must be unaffected.
		assert.Equal(t, all[k:], drain(c))
		assert.Equal(t, all[k:], drain(it))
	}
}

func TestIteratorPrune(t *testing.T) {
	tr := newTestTree(t, []int{8, 8}, 2)
	tr.Set([]int64{0, 0}, true)   // under root child 0
	tr.Set([]int64{31, 31}, true) // under root child 3

	it := tr.Iterator()
	var got []visit
	for it.HasNext() {
		nd := it.Next()
		got = append(got, visit{nd.Interval().String(), nd.Level(), nd.HasChildren()})
		if nd.Level() == 1 && nd.Interval().Min[0] == 0 {
			it.Prune()
		}
	}

	// The first subtree is skipped, the last one is still expanded.
	require.Len(t, got, 1+4+4)
	assert.Equal(t, visit{"[0,15]x[0,15]", 1, true}, got[1])
	assert.Equal(t, visit{"[16,31]x[0,15]", 1, false}, got[2])
	assert.Equal(t, visit{"[16,31]x[16,31]", 1, true}, got[4])
	assert.Equal(t, visit{"[16,23]x[16,23]", 0, false}, got[5])
	assert.Equal(t, visit{"[24,31]x[24,31]", 0, false}, got[8])
}

func TestPruneLeafIsNoop(t *testing.T) {
	tr := randomTree(t, []int{8, 8}, 2, 40, 2)
	want := drain(tr.Iterator())

	it := tr.Iterator()
	var got []visit
	for it.HasNext() {
		nd := it.Next()
		got = append(got, visit{nd.Interval().String(), nd.Level(), nd.HasChildren()})
		if !nd.HasChildren() {
			it.Prune()
		}
	}
	assert.Equal(t, want, got)
}

func TestForEachPrune(t *testing.T) {
	tr := randomTree(t, []int{8, 8}, 3, 200, 4)
	require.True(t, tr.root.hasChildren())

	var levels []int
	tr.ForEach(func(nd Node) bool {
		levels = append(levels, nd.Level())
		return nd.Level() == tr.Height()
	})

	require.Len(t, levels, 1+tr.numChildren)
	assert.Equal(t, 3, levels[0])
	for _, l := range levels[1:] {
		assert.Equal(t, 2, l)
	}

	visited := 0
	tr.ForEach(func(Node) bool {
		visited++
		return true
	})
	assert.Equal(t, countNodes(tr.root), visited)
}
