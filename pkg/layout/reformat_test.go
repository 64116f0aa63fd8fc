package layout

import "testing"

func TestReformatPositionQuadrants(t *testing.T) {
	cases := []struct {
		row, col           int
		wantRow, wantCol   int
	}{
		{1, 1, 1, 1},
		{2, 1, 9, 1},
		{1, 2, 1, 13},
		{2, 2, 9, 13},
		{3, 3, 2, 2},
		{16, 24, 16, 24},
	}
	for _, c := range cases {
		gotRow, gotCol := ReformatPosition(c.row, c.col, 16, 24)
		if gotRow != c.wantRow || gotCol != c.wantCol {
			t.Fatalf("ReformatPosition(%d, %d) = (%d, %d), want (%d, %d)",
				c.row, c.col, gotRow, gotCol, c.wantRow, c.wantCol)
		}
	}
}

func TestReformatPositionIsBijective(t *testing.T) {
	seen := make(map[[2]int]bool)
	for row := 1; row <= 16; row++ {
		for col := 1; col <= 24; col++ {
			r, c := ReformatPosition(row, col, 16, 24)
			if r < 1 || r > 16 || c < 1 || c > 24 {
				t.Fatalf("(%d, %d) mapped outside the grid to (%d, %d)", row, col, r, c)
			}
			key := [2]int{r, c}
			if seen[key] {
				t.Fatalf("two positions mapped to (%d, %d)", r, c)
			}
			seen[key] = true
		}
	}
}
