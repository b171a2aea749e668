package internal

import "math/bits"

// Layout describes the shape of a leaf tile. It is immutable and shared by
// every tile of a tree.
type Layout struct {
	// Dims is the size of a tile along each axis. Every entry is a power of
	// two and Dims[0] >= 8.
	Dims []int
	// Mask strips the tile coordinate from a global position: Dims[d]-1.
	Mask []int64
	// ByteDims equals Dims, except that ByteDims[0] = Dims[0]/8.
	ByteDims []int
	// BitSize is the number of cells in a tile.
	BitSize int
	// ByteSize is the number of bytes backing a tile.
	ByteSize int
}

// NewLayout precomputes the addressing tables for a tile of the given
// dimensions. Validation is the caller's job.
func NewLayout(dims []int) *Layout {
	n := len(dims)
	l := &Layout{
		Dims:     append([]int(nil), dims...),
		Mask:     make([]int64, n),
		ByteDims: append([]int(nil), dims...),
		BitSize:  1,
	}
	for d, dim := range dims {
		l.Mask[d] = int64(dim - 1)
		l.BitSize *= dim
	}
	l.ByteDims[0] >>= 3
	l.ByteSize = (l.BitSize + 7) / 8
	return l
}

// ByteIndex returns the index of the byte holding the cell at the global
// position pos. Only the tile-local part of pos is used.
func (l *Layout) ByteIndex(pos []int64) int {
	i := 0
	for d := len(l.Dims) - 1; d > 0; d-- {
		i = (i + int(pos[d]&l.Mask[d])) * l.ByteDims[d-1]
	}
	return i + int(pos[0]&l.Mask[0])>>3
}

// BitMask returns the bit selecting the cell at pos inside its byte.
func (l *Layout) BitMask(pos []int64) byte {
	return 1 << uint(pos[0]&l.Mask[0]&0x07)
}

// LowestOneBit returns the index of the lowest set bit of b, or 8 if b is 0.
func LowestOneBit(b byte) int {
	return bits.TrailingZeros8(b)
}

// HighestOneBit returns the index of the highest set bit of b, or -1 if b is 0.
func HighestOneBit(b byte) int {
	return bits.Len8(b) - 1
}
