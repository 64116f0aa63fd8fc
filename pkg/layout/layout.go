// Package layout provides plate-geometry primitives: spreadsheet-style well
// labels, the interleaved quarter addressing used for plate compression, and
// the normalization reformat transform.
package layout

import (
	"fmt"
	"strconv"
)

// RowLabel returns the spreadsheet-style letter label for a 1-based row
// number: 1 -> "A", 26 -> "Z", 27 -> "AA".
func RowLabel(row int) string {
	label := ""
	for row > 0 {
		row--
		label = string(rune('A'+row%26)) + label
		row /= 26
	}
	return label
}

// WellName returns the conventional well label for 1-based coordinates,
// row letter first: row 2, column 1 -> "B1".
func WellName(row, column int) string {
	return RowLabel(row) + strconv.Itoa(column)
}

// WellNameByIndex returns the label of the i-th well (0-based, row-major)
// on a rows x cols grid.
func WellNameByIndex(i, rows, cols int) (string, error) {
	if rows <= 0 || cols <= 0 {
		return "", fmt.Errorf("non-positive grid %dx%d", rows, cols)
	}
	if i < 0 || i >= rows*cols {
		return "", fmt.Errorf("well index %d outside %dx%d grid", i, rows, cols)
	}
	return WellName(i/cols+1, i%cols+1), nil
}
