package layout

import "testing"

func TestInterleavedPositionsCoversGridOnce(t *testing.T) {
	positions, err := InterleavedPositions(4, 16, 24)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	seen := make(map[[2]int]Position)
	count := 0
	for p := range positions {
		key := [2]int{p.OutputRow, p.OutputCol}
		if prev, dup := seen[key]; dup {
			t.Fatalf("output (%d, %d) assigned twice: %+v then %+v", p.OutputRow, p.OutputCol, prev, p)
		}
		seen[key] = p
		count++
	}
	if count != 16*24 {
		t.Fatalf("4 quarters on 16x24 yielded %d positions, want %d", count, 16*24)
	}
}

func TestInterleavedPositionsQuarterOffsets(t *testing.T) {
	positions, err := InterleavedPositions(4, 4, 4)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	for p := range positions {
		wantRowOffset := p.InputPlate / 2
		wantColOffset := p.InputPlate % 2
		if p.OutputRow%2 != wantRowOffset || p.OutputCol%2 != wantColOffset {
			t.Fatalf("quarter %d placed at (%d, %d), offsets want (%d, %d)",
				p.InputPlate, p.OutputRow, p.OutputCol, wantRowOffset, wantColOffset)
		}
		if p.OutputRow/2 != p.InputRow || p.OutputCol/2 != p.InputCol {
			t.Fatalf("input (%d, %d) mapped to output (%d, %d)", p.InputRow, p.InputCol, p.OutputRow, p.OutputCol)
		}
	}
}

func TestInterleavedPositionsOrderIsColumnOuter(t *testing.T) {
	positions, err := InterleavedPositions(1, 4, 4)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	var got []Position
	for p := range positions {
		got = append(got, p)
	}
	want := []Position{
		{OutputRow: 0, OutputCol: 0, InputRow: 0, InputCol: 0},
		{OutputRow: 2, OutputCol: 0, InputRow: 1, InputCol: 0},
		{OutputRow: 0, OutputCol: 2, InputRow: 0, InputCol: 1},
		{OutputRow: 2, OutputCol: 2, InputRow: 1, InputCol: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestInterleavedPositionsRestartable(t *testing.T) {
	positions, err := InterleavedPositions(2, 8, 12)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	count := func() int {
		n := 0
		for range positions {
			n++
		}
		return n
	}
	if first, second := count(), count(); first != second {
		t.Fatalf("second iteration yielded %d positions, first %d", second, first)
	}
}

func TestInterleavedPositionsRejectsBadArguments(t *testing.T) {
	if _, err := InterleavedPositions(0, 16, 24); err == nil {
		t.Fatal("expected error for zero quarters")
	}
	if _, err := InterleavedPositions(5, 16, 24); err == nil {
		t.Fatal("expected error for five quarters")
	}
	if _, err := InterleavedPositions(4, 15, 24); err == nil {
		t.Fatal("expected error for odd row count")
	}
	if _, err := InterleavedPositions(4, 16, 0); err == nil {
		t.Fatal("expected error for zero columns")
	}
}
