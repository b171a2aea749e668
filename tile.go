package ntree

import (
	"math"

	"github.com/sparse-roi/go-bitmask-ntree/internal"
)

// Tile is a bit-packed boolean block stored at a leaf of the tree. Cells are
// laid out row-major with axis 0 packed eight cells to a byte. The number of
// set cells is tracked on every write, never recounted.
type Tile struct {
	layout *internal.Layout
	bytes  []byte
	numSet int
}

func newTile(layout *internal.Layout, initial bool) *Tile {
	t := &Tile{
		layout: layout,
		bytes:  make([]byte, layout.ByteSize),
	}
	if initial {
		for i := range t.bytes {
			t.bytes[i] = 0xff
		}
		t.numSet = layout.BitSize
	}
	return t
}

// set writes value at pos and reports whether the tile just became entirely
// false or entirely true.
func (t *Tile) set(pos []int64, value bool) bool {
	i := t.layout.ByteIndex(pos)
	mask := t.layout.BitMask(pos)

	b := t.bytes[i]
	if value {
		if b&mask == 0 {
			t.bytes[i] = b | mask
			t.numSet++
			return t.numSet == t.layout.BitSize
		}
	} else {
		if b&mask != 0 {
			t.bytes[i] = b &^ mask
			t.numSet--
			return t.numSet == 0
		}
	}
	return false
}

// Get returns the cell at pos. Only the tile-local part of pos is used, so
// both global and tile-local coordinates are accepted.
func (t *Tile) Get(pos []int64) bool {
	return t.bytes[t.layout.ByteIndex(pos)]&t.layout.BitMask(pos) != 0
}

// NumSet returns the number of true cells.
func (t *Tile) NumSet() int {
	return t.numSet
}

// Size returns the number of cells.
func (t *Tile) Size() int {
	return t.layout.BitSize
}

// Shape returns the tile dimensions. The slice must not be modified.
func (t *Tile) Shape() []int {
	return t.layout.Dims
}

// Bytes exposes the backing buffer. It must not be modified.
func (t *Tile) Bytes() []byte {
	return t.bytes
}

func (t *Tile) clone() *Tile {
	return &Tile{
		layout: t.layout,
		bytes:  append([]byte(nil), t.bytes...),
		numSet: t.numSet,
	}
}

// BoundingBox computes the tile-local bounding box of the true cells into
// bbMin and bbMax (inclusive), each of length NumDimensions. If the tile has
// no true cells, bbMin is filled with math.MaxInt, bbMax with math.MinInt and
// false is returned.
func (t *Tile) BoundingBox(bbMin, bbMax []int) bool {
	n := len(t.layout.Dims)
	for d := 0; d < n; d++ {
		bbMin[d] = math.MaxInt
		bbMax[d] = math.MinInt
	}
	if t.numSet == 0 {
		return false
	}

	// bbMin[0], bbMax[0] are byte columns until refined below.
	byteDims := t.layout.ByteDims
	tmp := make([]int, n)
	for _, b := range t.bytes {
		if b != 0 {
			for d := 0; d < n; d++ {
				if tmp[d] < bbMin[d] {
					bbMin[d] = tmp[d]
				}
				if tmp[d] > bbMax[d] {
					bbMax[d] = tmp[d]
				}
			}
		}
		for d := 0; d < n; d++ {
			tmp[d]++
			if tmp[d] < byteDims[d] {
				break
			}
			tmp[d] = 0
		}
	}

	step := byteDims[0]
	var minProj byte
	for i := bbMin[0]; i < len(t.bytes); i += step {
		minProj |= t.bytes[i]
	}
	maxProj := minProj
	if bbMin[0] != bbMax[0] {
		maxProj = 0
		for i := bbMax[0]; i < len(t.bytes); i += step {
			maxProj |= t.bytes[i]
		}
	}

	bbMin[0] = bbMin[0]<<3 + internal.LowestOneBit(minProj)
	bbMax[0] = bbMax[0]<<3 + internal.HighestOneBit(maxProj)
	return true
}
