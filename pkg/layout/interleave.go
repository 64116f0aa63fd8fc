package layout

import (
	"fmt"
	"iter"
)

// Position maps one input-plate well onto its interleaved output position.
// All coordinates are 0-based.
type Position struct {
	OutputRow  int
	OutputCol  int
	InputPlate int
	InputRow   int
	InputCol   int
}

// InterleavedPositions yields the deterministic mapping that places up to
// four quarter-size input plates onto one output grid. Quarter q occupies
// the sub-lattice offset by (q/2, q%2) within every 2x2 block of the output
// grid. Iteration order is significant and relied upon by consumers: input
// plates in order, then each plate traversed down its columns
// (column-outer, row-inner).
//
// The returned sequence is finite and restartable; ranging over it twice
// yields the same positions.
func InterleavedPositions(numQuarters, totalRows, totalCols int) (iter.Seq[Position], error) {
	if numQuarters < 1 || numQuarters > 4 {
		return nil, fmt.Errorf("number of quarters must be within [1, 4]: %d", numQuarters)
	}
	if totalRows <= 0 || totalRows%2 != 0 {
		return nil, fmt.Errorf("total rows must be a positive even number: %d", totalRows)
	}
	if totalCols <= 0 || totalCols%2 != 0 {
		return nil, fmt.Errorf("total columns must be a positive even number: %d", totalCols)
	}
	return func(yield func(Position) bool) {
		for q := 0; q < numQuarters; q++ {
			rowOffset := q / 2
			colOffset := q % 2
			for col := 0; col < totalCols/2; col++ {
				for row := 0; row < totalRows/2; row++ {
					p := Position{
						OutputRow:  2*row + rowOffset,
						OutputCol:  2*col + colOffset,
						InputPlate: q,
						InputRow:   row,
						InputCol:   col,
					}
					if !yield(p) {
						return
					}
				}
			}
		}
	}, nil
}
