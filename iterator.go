package ntree

// Node is a view of a tree node produced by a NodeIterator or ForEach.
//
// Views are reused: the Node returned for a given level is overwritten when
// the iterator reaches the next node on that level. Copy the Interval if it
// must outlive the visit.
type Node interface {
	// HasChildren reports whether the node is subdivided.
	HasChildren() bool
	// Value is the uniform value of the node. It is only meaningful if the
	// node has neither children nor a tile.
	Value() bool
	// Tile returns the bit tile of a partially set tile-level node, or nil.
	Tile() *Tile
	// Interval is the region covered by the node.
	Interval() Interval
	// Level is the height of the node above the tile grid. The root is at
	// Tree.Height(), tile-sized nodes at 0.
	Level() int
}

// cursor is the per-level state of a NodeIterator and doubles as the Node
// view for the node it currently holds.
type cursor struct {
	level     int
	nd        *node
	interval  Interval
	nextChild int
}

var _ Node = (*cursor)(nil)

func (c *cursor) HasChildren() bool {
	return c.nd.hasChildren()
}

func (c *cursor) Value() bool {
	return c.nd.value
}

func (c *cursor) Tile() *Tile {
	return c.nd.tile
}

func (c *cursor) Interval() Interval {
	return c.interval
}

func (c *cursor) Level() int {
	return c.level
}

func (c *cursor) copyFrom(o *cursor) {
	c.nd = o.nd
	copy(c.interval.Min, o.interval.Min)
	copy(c.interval.Max, o.interval.Max)
	c.nextChild = o.nextChild
}

// NodeIterator walks the nodes of a tree depth-first in pre-order: a node is
// visited before its children, and children in index order.
//
// The iterator keeps one cursor per level, so it must not outlive a Grow of
// the tree, and the tree must not be mutated while it is in use.
type NodeIterator struct {
	tree   *Tree
	height int

	// cursors[l] holds the node currently visited at level l.
	cursors []*cursor

	next    *cursor
	current *cursor
}

// Iterator returns a NodeIterator positioned before the root.
func (t *Tree) Iterator() *NodeIterator {
	it := &NodeIterator{
		tree:    t,
		height:  t.height,
		cursors: make([]*cursor, t.height+1),
	}
	for l := range it.cursors {
		it.cursors[l] = &cursor{
			level:    l,
			interval: newInterval(t.n),
		}
	}
	it.Reset()
	return it
}

// Reset positions the iterator before the root again.
func (it *NodeIterator) Reset() {
	t := it.tree
	rc := it.cursors[it.height]
	for d, dim := range t.layout.Dims {
		rc.interval.Min[d] = 0
		rc.interval.Max[d] = sideLength(dim, it.height) - 1
	}
	rc.nd = t.root
	it.resetChildren(rc)
	it.next = rc
	it.current = nil
}

func (it *NodeIterator) resetChildren(c *cursor) {
	if c.nd.hasChildren() {
		c.nextChild = 0
	} else {
		c.nextChild = it.tree.numChildren
	}
}

func (it *NodeIterator) HasNext() bool {
	return it.next != nil
}

// Next advances to the next node and returns it, or nil if the traversal is
// complete.
func (it *NodeIterator) Next() Node {
	c := it.next
	if c == nil {
		return nil
	}

	if l := c.level; l < it.height {
		parent := it.cursors[l+1]
		i := parent.nextChild
		parent.nextChild++

		c.nd = parent.nd.children[i]
		it.resetChildren(c)
		for d, dim := range it.tree.layout.Dims {
			s := sideLength(dim, l)
			lo := parent.interval.Min[d]
			if i&(1<<d) != 0 {
				lo += s
			}
			c.interval.Min[d] = lo
			c.interval.Max[d] = lo + s - 1
		}
	}

	it.current = c
	it.next = it.following(c)
	return c
}

// Current returns the node returned by the last call to Next, or nil.
func (it *NodeIterator) Current() Node {
	if it.current == nil {
		return nil
	}
	return it.current
}

// Prune skips the children of the current node. Traversal continues with
// the next sibling of the current node or of its closest ancestor that has
// one.
func (it *NodeIterator) Prune() {
	if it.current == nil {
		return
	}
	it.current.nextChild = it.tree.numChildren
	it.next = it.following(it.current)
}

// following returns the cursor that the next call to Next fills in after c:
// the first child of c if any remain, otherwise the next sibling slot of the
// closest ancestor with unvisited children.
func (it *NodeIterator) following(c *cursor) *cursor {
	for c.nextChild >= it.tree.numChildren {
		if c.level == it.height {
			return nil
		}
		c = it.cursors[c.level+1]
	}
	return it.cursors[c.level-1]
}

// Clone returns an iterator at the same position. Advancing either iterator
// does not affect the other.
func (it *NodeIterator) Clone() *NodeIterator {
	c := &NodeIterator{
		tree:    it.tree,
		height:  it.height,
		cursors: make([]*cursor, len(it.cursors)),
	}
	for l, o := range it.cursors {
		nc := &cursor{
			level:    l,
			interval: newInterval(it.tree.n),
		}
		nc.copyFrom(o)
		c.cursors[l] = nc

		if it.current == o {
			c.current = nc
		}
		if it.next == o {
			c.next = nc
		}
	}
	return c
}

// ForEach visits every node in pre-order. If fn returns false for a node,
// its descendants are skipped.
func (t *Tree) ForEach(fn func(Node) bool) {
	it := t.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			it.Prune()
		}
	}
}
