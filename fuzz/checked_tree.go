package fuzzer

import (
	"context"
	"fmt"
	"math/rand"

	ntree "github.com/sparse-roi/go-bitmask-ntree"
)

// maxHeight keeps the checked region small enough to scan after every run.
const maxHeight = 4

var tileShape = []int{8, 8}

type cell [2]int64

type checkedTree struct {
	tree *ntree.Tree
	step uint64

	cells map[cell]struct{}
}

func newCheckedTree() (*checkedTree, error) {
	tree, err := ntree.NewTree(tileShape, ntree.UseInitialHeight(1))
	if err != nil {
		return nil, err
	}
	return &checkedTree{
		tree:  tree,
		cells: make(map[cell]struct{}),
	}, nil
}

// pos maps arbitrary fuzz input into the current bounds.
func (c *checkedTree) pos(x, y int64) []int64 {
	b := c.tree.Bounds()
	return []int64{x % b.Dimension(0), y % b.Dimension(1)}
}

func (c *checkedTree) set(x, y int64, value bool) {
	p := c.pos(x, y)
	c.trace("set %v to %t", p, value)
	c.tree.Set(p, value)
	if value {
		c.cells[cell{p[0], p[1]}] = struct{}{}
	} else {
		delete(c.cells, cell{p[0], p[1]})
	}
	if c.tree.Get(p) != value {
		c.fail("expected %v to be %t after set", p, value)
	}
}

// fill paints the whole tile containing (x, y), which must collapse it.
func (c *checkedTree) fill(x, y int64) {
	p := c.pos(x, y)
	c.trace("fill tile of %v", p)
	tile := ntree.Interval{
		Min: []int64{p[0] &^ int64(tileShape[0]-1), p[1] &^ int64(tileShape[1]-1)},
	}
	tile.Max = []int64{tile.Min[0] + int64(tileShape[0]) - 1, tile.Min[1] + int64(tileShape[1]) - 1}
	for py := tile.Min[1]; py <= tile.Max[1]; py++ {
		for px := tile.Min[0]; px <= tile.Max[0]; px++ {
			c.tree.Set([]int64{px, py}, true)
			c.cells[cell{px, py}] = struct{}{}
		}
	}
	if got := c.tree.GetAtLevel(p, 0); got != ntree.Present {
		c.fail("expected filled tile at %v to be present, got %s", p, got)
	}
	c.tree.ForEach(func(nd ntree.Node) bool {
		if nd.Tile() != nil && nd.Interval().Equal(tile) {
			c.fail("filled tile %s was not collapsed", tile)
		}
		return true
	})
}

func (c *checkedTree) get(x, y int64) {
	p := c.pos(x, y)
	c.trace("get %v", p)
	_, expected := c.cells[cell{p[0], p[1]}]
	if actual := c.tree.Get(p); actual != expected {
		c.fail("expected %v to be %t", p, expected)
	}
}

func (c *checkedTree) grow(childIndex int) {
	if c.tree.Height() >= maxHeight {
		c.trace("grow skipped at height %d", c.tree.Height())
		return
	}
	childIndex %= 1 << len(tileShape)
	if childIndex < 0 {
		childIndex = -childIndex
	}
	c.trace("grow %d", childIndex)

	b := c.tree.Bounds()
	moved := make(map[cell]struct{}, len(c.cells))
	for k := range c.cells {
		for d := range k {
			if childIndex&(1<<d) != 0 {
				k[d] += b.Dimension(d)
			}
		}
		moved[k] = struct{}{}
	}
	c.cells = moved
	c.tree.Grow(childIndex)
}

func (c *checkedTree) clone() {
	c.trace("clone")
	cp := c.tree.Clone()
	changes, err := ntree.Diff(context.Background(), c.tree, cp)
	c.checkErr(err)
	if len(changes) != 0 {
		c.fail("clone differs from original: %v", changes)
	}
	// Mutating the clone must not leak back.
	cp.Set([]int64{0, 0}, !cp.Get([]int64{0, 0}))
	_, expected := c.cells[cell{0, 0}]
	if c.tree.Get([]int64{0, 0}) != expected {
		c.fail("mutating a clone changed the original")
	}
}

func (c *checkedTree) iterate() {
	c.trace("iterate")
	it := c.tree.Iterator()
	var covered int64
	var half *ntree.NodeIterator
	var rest []string
	for i := 0; it.HasNext(); i++ {
		nd := it.Next()
		if i == 2 {
			half = it.Clone()
		}
		if half != nil && i > 2 {
			rest = append(rest, nd.Interval().String())
		}
		if !nd.HasChildren() {
			covered += nd.Interval().NumElements()
		}
	}
	if b := c.tree.Bounds(); covered != b.NumElements() {
		c.fail("leaves cover %d cells, bounds hold %d", covered, b.NumElements())
	}
	if half == nil {
		return
	}
	for i := 0; half.HasNext(); i++ {
		s := half.Next().Interval().String()
		if i >= len(rest) || rest[i] != s {
			c.fail("cloned iterator diverged at %d: %s", i, s)
		}
	}
}

func (c *checkedTree) trace(msg string, args ...interface{}) {
	c.step++
	if Debug {
		fmt.Printf("step %d: "+msg+"\n", append([]interface{}{c.step}, args...)...)
	}
}

func (c *checkedTree) check() {
	c.checkByGet()
	c.checkByIter()
	c.checkBoundingBox()

	// Check by reproducing: compaction is canonical, so writing the same
	// cells in any order must produce an identical structure.
	tree, err := ntree.NewTree(tileShape, ntree.UseInitialHeight(c.tree.Height()))
	c.checkErr(err)
	keys := make([]cell, 0, len(c.cells))
	for k := range c.cells {
		keys = append(keys, k)
	}
	rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	for _, k := range keys {
		tree.Set(k[:], true)
	}
	changes, err := ntree.Diff(context.Background(), c.tree, tree)
	c.checkErr(err)
	if len(changes) != 0 {
		c.fail("reproduced tree differs: %v", changes)
	}
	if a, b := c.tree.Stats(), tree.Stats(); a != b {
		c.fail("expected to reconstruct identical tree: %+v != %+v", a, b)
	}
}

func (c *checkedTree) checkByGet() {
	b := c.tree.Bounds()
	p := make([]int64, 2)
	for p[1] = b.Min[1]; p[1] <= b.Max[1]; p[1]++ {
		for p[0] = b.Min[0]; p[0] <= b.Max[0]; p[0]++ {
			_, expected := c.cells[cell{p[0], p[1]}]
			if c.tree.Get(p) != expected {
				c.fail("expected %v to be %t", p, expected)
			}
		}
	}
	if n := c.tree.Count(); n != int64(len(c.cells)) {
		c.fail("expected %d true cells, counted %d", len(c.cells), n)
	}
}

func (c *checkedTree) checkByIter() {
	toFind := make(map[cell]struct{}, len(c.cells))
	for k := range c.cells {
		toFind[k] = struct{}{}
	}
	c.tree.ForEachTrue(func(pos []int64) bool {
		k := cell{pos[0], pos[1]}
		if _, ok := toFind[k]; !ok {
			c.fail("unexpected cell %v", pos)
		}
		delete(toFind, k)
		return true
	})
	if len(toFind) > 0 {
		missing := make([]cell, 0, len(toFind))
		for k := range toFind {
			missing = append(missing, k)
		}
		c.fail("failed to find expected cells in tree: %v", missing)
	}
}

func (c *checkedTree) checkBoundingBox() {
	bb, ok := c.tree.BoundingBox()
	if ok != (len(c.cells) > 0) {
		c.fail("bounding box presence %t with %d cells", ok, len(c.cells))
	}
	for k := range c.cells {
		if !bb.Contains(k[:]) {
			c.fail("bounding box %s misses %v", bb, k)
		}
	}
}

func (c *checkedTree) checkErr(e error) {
	if e != nil {
		c.fail(e.Error())
	}
}

func (c *checkedTree) fail(msg string, args ...interface{}) {
	panic(fmt.Sprintf("step %d: "+msg, append([]interface{}{c.step}, args...)...))
}
