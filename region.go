package ntree

// Stats counts the nodes of a tree by kind.
type Stats struct {
	Internal int
	Mixed    int
	Uniform  int
}

func (s Stats) Nodes() int {
	return s.Internal + s.Mixed + s.Uniform
}

// Stats walks the tree and counts its nodes.
func (t *Tree) Stats() Stats {
	var s Stats
	t.ForEach(func(nd Node) bool {
		switch {
		case nd.HasChildren():
			s.Internal++
		case nd.Tile() != nil:
			s.Mixed++
		default:
			s.Uniform++
		}
		return true
	})
	return s
}

// Count returns the number of true cells.
func (t *Tree) Count() int64 {
	var count int64
	t.ForEach(func(nd Node) bool {
		switch {
		case nd.HasChildren():
		case nd.Tile() != nil:
			count += int64(nd.Tile().NumSet())
		case nd.Value():
			count += nd.Interval().NumElements()
		}
		return true
	})
	return count
}

// BoundingBox returns the smallest interval containing every true cell. The
// second result is false if the tree holds no true cell.
func (t *Tree) BoundingBox() (Interval, bool) {
	bb := newInterval(t.n)
	found := false
	extend := func(lo, hi []int64) {
		if !found {
			copy(bb.Min, lo)
			copy(bb.Max, hi)
			found = true
			return
		}
		for d := range lo {
			if lo[d] < bb.Min[d] {
				bb.Min[d] = lo[d]
			}
			if hi[d] > bb.Max[d] {
				bb.Max[d] = hi[d]
			}
		}
	}

	tileMin := make([]int, t.n)
	tileMax := make([]int, t.n)
	lo := make([]int64, t.n)
	hi := make([]int64, t.n)
	t.ForEach(func(nd Node) bool {
		iv := nd.Interval()
		// Nothing inside iv can grow the box any more.
		if found && bb.ContainsInterval(iv) {
			return false
		}
		switch {
		case nd.HasChildren():
		case nd.Tile() != nil:
			if nd.Tile().BoundingBox(tileMin, tileMax) {
				for d := range lo {
					lo[d] = iv.Min[d] + int64(tileMin[d])
					hi[d] = iv.Min[d] + int64(tileMax[d])
				}
				extend(lo, hi)
			}
		case nd.Value():
			extend(iv.Min, iv.Max)
		}
		return true
	})
	return bb, found
}

// ForEachTrue calls fn with the position of every true cell, stopping early
// if fn returns false. Cells are reported leaf by leaf in node order, and row
// by row with axis 0 varying fastest inside a leaf. pos is reused between
// calls.
func (t *Tree) ForEachTrue(fn func(pos []int64) bool) {
	it := t.Iterator()
	for it.HasNext() {
		nd := it.Next()
		if nd.HasChildren() {
			continue
		}

		ok := true
		if tile := nd.Tile(); tile != nil {
			ok = forEachCell(nd.Interval(), func(pos []int64) bool {
				if !tile.Get(pos) {
					return true
				}
				return fn(pos)
			})
		} else if nd.Value() {
			ok = forEachCell(nd.Interval(), fn)
		}
		if !ok {
			return
		}
	}
}
