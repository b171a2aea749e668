package ntree

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/sparse-roi/go-bitmask-ntree/internal"
)

var log = logging.Logger("ntree")

const (
	// MaxDimensions is the largest number of axes a tree may have. Internal
	// nodes have 2^n children.
	MaxDimensions = 16

	// maxCoordBits bounds the side length of the tree so that every covered
	// coordinate, and the size of every covered axis, fits in an int64.
	maxCoordBits = 62
)

var (
	// ErrInvalidConfiguration is returned (wrapped) for any tile shape or
	// option that cannot describe a tree.
	ErrInvalidConfiguration = errors.New("invalid tree configuration")
	// ErrIncompatibleTrees is returned when two trees with different tile
	// shapes are compared.
	ErrIncompatibleTrees = errors.New("incompatible trees")
)

// Tree is a sparse boolean function over an n-dimensional integer grid. The
// grid is divided into tiles of a fixed shape; the tree above the tiles is
// 2^n-ary and is kept maximally compact: every subtree that holds a single
// value is collapsed into one uniform node.
//
// The root covers [0, tileShape[d]<<height) on every axis d.
//
// A Tree is not safe for concurrent mutation. Reads (Get, iteration, Diff)
// may run concurrently with each other, but not with Set or Grow.
type Tree struct {
	n           int
	numChildren int
	layout      *internal.Layout

	height int
	root   *node

	// bounds is recomputed whenever height changes.
	bounds Interval
}

// NewTree creates an all-false tree whose leaf tiles have the given shape.
// Every entry of tileShape must be a power of two and tileShape[0] must be at
// least 8.
func NewTree(tileShape []int, opts ...Option) (*Tree, error) {
	if err := checkTileShape(tileShape); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := checkHeight(tileShape, cfg.height); err != nil {
		return nil, err
	}

	t := &Tree{
		n:           len(tileShape),
		numChildren: 1 << len(tileShape),
		layout:      internal.NewLayout(tileShape),
		height:      cfg.height,
		root:        newUniformNode(nil, false),
		bounds:      newInterval(len(tileShape)),
	}
	t.updateBounds()
	return t, nil
}

func checkTileShape(tileShape []int) error {
	if len(tileShape) == 0 {
		return xerrors.Errorf("tile shape must not be empty: %w", ErrInvalidConfiguration)
	}
	if len(tileShape) > MaxDimensions {
		return xerrors.Errorf("tile shape has %d dimensions, at most %d are supported: %w",
			len(tileShape), MaxDimensions, ErrInvalidConfiguration)
	}

	size := 1
	for d, dim := range tileShape {
		if dim < 1 {
			return xerrors.Errorf("tileShape[%d] must be >= 1, is %d: %w", d, dim, ErrInvalidConfiguration)
		}
		if d == 0 && dim < 8 {
			return xerrors.Errorf("tileShape[0] must be >= 8, is %d: %w", dim, ErrInvalidConfiguration)
		}
		if bits.OnesCount(uint(dim)) != 1 {
			return xerrors.Errorf("tileShape[%d] must be a power of 2, is %d: %w", d, dim, ErrInvalidConfiguration)
		}
		if size > math.MaxInt/dim {
			return xerrors.Errorf("tile shape %v has too many cells: %w", tileShape, ErrInvalidConfiguration)
		}
		size *= dim
	}
	return nil
}

func checkHeight(tileShape []int, height int) error {
	if height < 0 {
		return xerrors.Errorf("height must be non-negative, is %d: %w", height, ErrInvalidConfiguration)
	}
	for d, dim := range tileShape {
		if bits.Len(uint(dim))-1+height > maxCoordBits {
			return xerrors.Errorf("height %d overflows axis %d (tile size %d): %w",
				height, d, dim, ErrInvalidConfiguration)
		}
	}
	return nil
}

func (t *Tree) Height() int {
	return t.height
}

func (t *Tree) NumDimensions() int {
	return t.n
}

// TileShape returns a copy of the leaf tile dimensions.
func (t *Tree) TileShape() []int {
	return append([]int(nil), t.layout.Dims...)
}

// Bounds returns the interval covered by the root, [0, tileShape[d]<<height)
// on every axis.
func (t *Tree) Bounds() Interval {
	return t.bounds.Copy()
}

func (t *Tree) updateBounds() {
	for d, dim := range t.layout.Dims {
		t.bounds.Min[d] = 0
		t.bounds.Max[d] = sideLength(dim, t.height) - 1
	}
}

// childIndex selects the child of a level l+1 node that contains pos: bit d
// of the index is set iff pos lies in the upper half along axis d.
func (t *Tree) childIndex(pos []int64, l int) int {
	i := 0
	for d, dim := range t.layout.Dims {
		if pos[d]&sideLength(dim, l) != 0 {
			i |= 1 << d
		}
	}
	return i
}

// nodeAt returns the lowest node containing pos whose level is at least
// minLevel, together with that level.
func (t *Tree) nodeAt(pos []int64, minLevel int) (*node, int) {
	current := t.root
	l := t.height
	for ; l > minLevel; l-- {
		if !current.hasChildren() {
			break
		}
		current = current.children[t.childIndex(pos, l-1)]
	}
	return current, l
}

// Get returns the value at pos.
//
// Positions outside Bounds() are not checked; they are routed by their low
// bits and yield a deterministic but meaningless result. Grow the tree first.
func (t *Tree) Get(pos []int64) bool {
	nd, _ := t.nodeAt(pos, 0)
	if nd.kind == kindMixed {
		return nd.tile.Get(pos)
	}
	return nd.value
}

// Presence classifies the region of a node.
type Presence int

const (
	Absent Presence = iota
	Present
	Mixed
)

func (p Presence) String() string {
	switch p {
	case Absent:
		return "Absent"
	case Present:
		return "Present"
	case Mixed:
		return "Mixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// GetAtLevel inspects the lowest node at or above level that contains pos.
// It returns Mixed if that node has children, otherwise the value at pos.
func (t *Tree) GetAtLevel(pos []int64, level int) Presence {
	nd, _ := t.nodeAt(pos, level)
	switch {
	case nd.hasChildren():
		return Mixed
	case nd.kind == kindMixed && nd.tile.Get(pos):
		return Present
	case nd.kind == kindUniform && nd.value:
		return Present
	default:
		return Absent
	}
}

// Set writes value at pos. Uniform nodes along the path are split only as
// deep as needed, and a tile is only allocated if the write changes a value.
// If the write makes a tile uniform, the tile is dropped and identical
// siblings are merged upwards.
//
// As with Get, pos must lie inside Bounds().
func (t *Tree) Set(pos []int64, value bool) {
	current := t.root
	for l := t.height - 1; l >= 0; l-- {
		if !current.hasChildren() {
			if current.value == value {
				return
			}
			current.split(t.numChildren)
		}
		current = current.children[t.childIndex(pos, l)]
	}

	if current.kind == kindUniform {
		if current.value == value {
			return
		}
		current.materialize(t.layout)
	}

	if current.tile.set(pos, value) {
		current.collapse(value)
		t.mergeUpwards(current, value)
	}
}

// mergeUpwards collapses the parent of nd if all of its children are uniform
// with value, and repeats for the parent.
func (t *Tree) mergeUpwards(nd *node, value bool) {
	for parent := nd.parent; parent != nil; parent = parent.parent {
		for _, child := range parent.children {
			if !child.isUniform(value) {
				return
			}
		}
		parent.collapse(value)
	}
}

// Grow adds a level above the root. The old root becomes child childIndex of
// the new root; all other children are false. Bit d of childIndex selects
// whether the old content ends up in the lower (0) or upper (1) half along
// axis d, so Grow(0) keeps all existing coordinates valid while any other
// index shifts them.
//
// Grow is a raw bounds-doubling primitive. It does not look at any position
// the caller intends to write; callers that need to cover a position must
// pick childIndex and repeat as needed. Grow must not be called while a
// NodeIterator over the tree is in use.
func (t *Tree) Grow(childIndex int) {
	if childIndex < 0 || childIndex >= t.numChildren {
		panic(fmt.Sprintf("child index %d out of range [0, %d)", childIndex, t.numChildren))
	}
	if err := checkHeight(t.layout.Dims, t.height+1); err != nil {
		panic(err)
	}

	old := t.root
	root := &node{
		kind:     kindInternal,
		children: make([]*node, t.numChildren),
	}
	for i := range root.children {
		if i == childIndex {
			root.children[i] = old
		} else {
			root.children[i] = newUniformNode(root, false)
		}
	}
	old.parent = root
	t.root = root
	t.height++

	if old.kind == kindUniform {
		t.mergeUpwards(old, old.value)
	}
	t.updateBounds()

	log.Debugw("grew tree", "height", t.height, "childIndex", childIndex, "bounds", t.bounds.String())
}

// Clone returns a deep copy of the tree. The copy shares no mutable state
// with t.
func (t *Tree) Clone() *Tree {
	c := *t
	c.root = t.root.clone(nil)
	c.bounds = t.bounds.Copy()
	return &c
}

// sameShape reports whether t and o have identical tile shapes.
func (t *Tree) sameShape(o *Tree) bool {
	if t.n != o.n {
		return false
	}
	for d, dim := range t.layout.Dims {
		if o.layout.Dims[d] != dim {
			return false
		}
	}
	return true
}
