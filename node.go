package ntree

import (
	"github.com/sparse-roi/go-bitmask-ntree/internal"
)

type nodeKind uint8

const (
	// kindUniform nodes cover a region holding a single value.
	kindUniform nodeKind = iota
	// kindMixed nodes are at tile level and hold a partially set tile.
	kindMixed
	// kindInternal nodes have 2^n children.
	kindInternal
)

func (k nodeKind) String() string {
	switch k {
	case kindUniform:
		return "uniform"
	case kindMixed:
		return "mixed"
	case kindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// node is mutated in place when its kind changes so that the parent's
// children slice never needs relinking. Exactly one payload is live:
// value for kindUniform, tile for kindMixed, children for kindInternal.
type node struct {
	kind     nodeKind
	value    bool
	tile     *Tile
	children []*node

	// parent is only used to walk upwards when merging. nil for the root.
	parent *node
}

func newUniformNode(parent *node, value bool) *node {
	return &node{
		kind:   kindUniform,
		value:  value,
		parent: parent,
	}
}

func (nd *node) hasChildren() bool {
	return nd.kind == kindInternal
}

// isUniform reports whether nd is a childless, tileless node holding value.
func (nd *node) isUniform(value bool) bool {
	return nd.kind == kindUniform && nd.value == value
}

// split turns a uniform node into an internal node whose children all carry
// the old value.
func (nd *node) split(numChildren int) {
	nd.children = make([]*node, numChildren)
	for i := range nd.children {
		nd.children[i] = newUniformNode(nd, nd.value)
	}
	nd.kind = kindInternal
}

// materialize gives a uniform tile-level node a tile filled with its value.
func (nd *node) materialize(layout *internal.Layout) {
	nd.tile = newTile(layout, nd.value)
	nd.kind = kindMixed
}

// collapse discards any tile or children and makes nd uniform.
func (nd *node) collapse(value bool) {
	nd.tile = nil
	nd.children = nil
	nd.value = value
	nd.kind = kindUniform
}

// clone deep-copies the subtree rooted at nd and attaches it to parent.
func (nd *node) clone(parent *node) *node {
	c := &node{
		kind:   nd.kind,
		value:  nd.value,
		parent: parent,
	}
	switch nd.kind {
	case kindMixed:
		c.tile = nd.tile.clone()
	case kindInternal:
		c.children = make([]*node, len(nd.children))
		for i, child := range nd.children {
			c.children[i] = child.clone(c)
		}
	}
	return c
}
