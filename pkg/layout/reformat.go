package layout

// ReformatPosition remaps a 1-based well position from interleaved 2x2-block
// order to compact half-plate quadrants: even source rows fill the top half,
// odd rows the bottom half, even columns the left half, odd columns the
// right. Useful when a compressed plate is not full, since the occupied
// wells end up contiguous. The transform is its own inverse on a full grid.
func ReformatPosition(row, column, numRows, numCols int) (int, int) {
	r, c := row-1, column-1
	rOffset := r % 2
	cOffset := c % 2
	r = (r-rOffset)/2 + rOffset*(numRows/2)
	c = (c-cOffset)/2 + cOffset*(numCols/2)
	return r + 1, c + 1
}
