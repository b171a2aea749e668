package ntree

// sideLength returns the extent along one axis of a node at level whose
// tiles are dim cells wide along that axis.
func sideLength(dim, level int) int64 {
	return int64(dim) << level
}

// forEachCell calls fn for every position in iv, axis 0 varying fastest. It
// returns false as soon as fn does.
func forEachCell(iv Interval, fn func(pos []int64) bool) bool {
	n := iv.NumDimensions()
	pos := append([]int64(nil), iv.Min...)
	for {
		if !fn(pos) {
			return false
		}
		d := 0
		for ; d < n; d++ {
			pos[d]++
			if pos[d] <= iv.Max[d] {
				break
			}
			pos[d] = iv.Min[d]
		}
		if d == n {
			return true
		}
	}
}
