package ntree

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/xerrors"
)

// ChangeType denotes type of change in Change
type ChangeType int

const (
	// Add marks cells that are false in the previous tree and true in the
	// current one.
	Add ChangeType = iota
	// Remove marks cells that are true in the previous tree and false in the
	// current one.
	Remove
)

func (ct ChangeType) String() string {
	switch ct {
	case Add:
		return "Add"
	case Remove:
		return "Remove"
	default:
		return fmt.Sprintf("unknown(%d)", int(ct))
	}
}

// Change is a region whose cells all flipped the same way between two trees.
type Change struct {
	Type     ChangeType
	Interval Interval
}

func (ch Change) String() string {
	return fmt.Sprintf("%s %s", ch.Type, ch.Interval)
}

// Diff returns a set of changes that transform prev into cur. Both trees must
// have the same tile shape. If their heights differ, the shorter tree is
// compared against child 0 of the taller one at every extra level (the layout
// produced by Grow(0)), and the rest of the taller tree is reported in full.
//
// Regions that are uniform in both trees are reported as a single change;
// differences inside tiles are reported cell by cell.
func Diff(ctx context.Context, prev, cur *Tree) ([]*Change, error) {
	df, err := newDiffer(prev, cur)
	if err != nil {
		return nil, err
	}

	var changes []*Change
	err = df.diffNode(ctx, prev.root, cur.root, prev.height, cur.height, make([]int64, prev.n), func(ch *Change) error {
		changes = append(changes, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

type differ struct {
	dims        []int
	numChildren int

	// compared counts visited node pairs. Updated atomically.
	compared int64
}

func newDiffer(prev, cur *Tree) (*differ, error) {
	if !prev.sameShape(cur) {
		return nil, xerrors.Errorf("diffing trees with differing tile shapes not supported (prev=%v, cur=%v): %w",
			prev.layout.Dims, cur.layout.Dims, ErrIncompatibleTrees)
	}
	return &differ{
		dims:        prev.layout.Dims,
		numChildren: prev.numChildren,
	}, nil
}

func (df *differ) interval(level int, origin []int64) Interval {
	iv := newInterval(len(df.dims))
	for d, dim := range df.dims {
		iv.Min[d] = origin[d]
		iv.Max[d] = origin[d] + sideLength(dim, level) - 1
	}
	return iv
}

// childOrigin returns the lowest corner of child i, a node at level, of the
// node whose lowest corner is origin.
func (df *differ) childOrigin(origin []int64, level, i int) []int64 {
	offs := append([]int64(nil), origin...)
	for d, dim := range df.dims {
		if i&(1<<d) != 0 {
			offs[d] += sideLength(dim, level)
		}
	}
	return offs
}

// childAt returns child i of nd. A uniform node stands in for each of its
// own children.
func childAt(nd *node, i int) *node {
	if nd.hasChildren() {
		return nd.children[i]
	}
	return nd
}

func leafValue(nd *node, pos []int64) bool {
	if nd.kind == kindMixed {
		return nd.tile.Get(pos)
	}
	return nd.value
}

func changeFor(value bool, iv Interval) *Change {
	if value {
		return &Change{Type: Add, Interval: iv}
	}
	return &Change{Type: Remove, Interval: iv}
}

func cellChange(value bool, pos []int64) *Change {
	return changeFor(value, Interval{
		Min: append([]int64(nil), pos...),
		Max: append([]int64(nil), pos...),
	})
}

func (df *differ) diffNode(ctx context.Context, prev, cur *node, prevLevel, curLevel int, origin []int64, emit func(*Change) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	atomic.AddInt64(&df.compared, 1)

	if curLevel > prevLevel {
		for i := 0; i < df.numChildren; i++ {
			sub := childAt(cur, i)
			offs := df.childOrigin(origin, curLevel-1, i)

			var err error
			if i == 0 {
				err = df.diffNode(ctx, prev, sub, prevLevel, curLevel-1, offs, emit)
			} else {
				err = df.emitAll(ctx, sub, curLevel-1, offs, Add, emit)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	if prevLevel > curLevel {
		for i := 0; i < df.numChildren; i++ {
			sub := childAt(prev, i)
			offs := df.childOrigin(origin, prevLevel-1, i)

			var err error
			if i == 0 {
				err = df.diffNode(ctx, sub, cur, prevLevel-1, curLevel, offs, emit)
			} else {
				err = df.emitAll(ctx, sub, prevLevel-1, offs, Remove, emit)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	level := curLevel
	if prev.kind == kindUniform && cur.kind == kindUniform {
		if prev.value == cur.value {
			return nil
		}
		return emit(changeFor(cur.value, df.interval(level, origin)))
	}

	if level == 0 {
		return df.diffLeaves(prev, cur, origin, emit)
	}

	for i := 0; i < df.numChildren; i++ {
		offs := df.childOrigin(origin, level-1, i)
		if err := df.diffNode(ctx, childAt(prev, i), childAt(cur, i), level-1, level-1, offs, emit); err != nil {
			return err
		}
	}
	return nil
}

// diffLeaves compares two tile-level nodes, at least one of which has a tile.
func (df *differ) diffLeaves(prev, cur *node, origin []int64, emit func(*Change) error) error {
	if prev.kind == kindMixed && cur.kind == kindMixed && bytes.Equal(prev.tile.bytes, cur.tile.bytes) {
		return nil
	}

	var err error
	forEachCell(df.interval(0, origin), func(pos []int64) bool {
		before, after := leafValue(prev, pos), leafValue(cur, pos)
		if before == after {
			return true
		}
		err = emit(cellChange(after, pos))
		return err == nil
	})
	return err
}

// emitAll reports every true cell below nd as a change of type ct.
func (df *differ) emitAll(ctx context.Context, nd *node, level int, origin []int64, ct ChangeType, emit func(*Change) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch nd.kind {
	case kindUniform:
		if !nd.value {
			return nil
		}
		return emit(&Change{Type: ct, Interval: df.interval(level, origin)})

	case kindMixed:
		var err error
		forEachCell(df.interval(0, origin), func(pos []int64) bool {
			if !nd.tile.Get(pos) {
				return true
			}
			ch := cellChange(true, pos)
			ch.Type = ct
			err = emit(ch)
			return err == nil
		})
		return err

	default:
		for i, child := range nd.children {
			if err := df.emitAll(ctx, child, level-1, df.childOrigin(origin, level-1, i), ct, emit); err != nil {
				return err
			}
		}
		return nil
	}
}
