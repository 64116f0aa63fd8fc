package instrument

import (
	"strings"
	"testing"
)

func TestNormalizationPicklistWaterThenDNA(t *testing.T) {
	rows := []NormalizationPicklistRow{
		{SampleID: "s1", SourceWell: "A1", DestWell: "A1", Concentration: 2, DNAVolume: 2500, WaterVolume: 1000},
		{SampleID: "s2", SourceWell: "B1", DestWell: "B1", Concentration: 7.89, DNAVolume: 632.5, WaterVolume: 2867.5},
	}
	out := NormalizationPicklist(rows, DefaultNormalizationPicklistOptions())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want header plus 4 rows", len(lines))
	}
	if lines[0] != "Sample ID\tSource Plate Name\tSource Plate Type\tSource Well\tConcentration\tTransfer Volume\tDestination Plate Name\tDestination Well" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "\tWater\t") || !strings.Contains(lines[2], "\tWater\t") {
		t.Fatalf("water rows must come first: %q / %q", lines[1], lines[2])
	}
	if !strings.Contains(lines[3], "\tSample\t") || !strings.Contains(lines[4], "\tSample\t") {
		t.Fatalf("dna rows must come last: %q / %q", lines[3], lines[4])
	}
	if lines[1] != "s1\tWater\t384PP_AQ_BP2_HT\tA1\t2\t1000\tNormalizedDNA\tA1" {
		t.Fatalf("water row = %q", lines[1])
	}
	if lines[3] != "s1\tSample\t384PP_AQ_BP2_HT\tA1\t2\t2500\tNormalizedDNA\tA1" {
		t.Fatalf("dna row = %q", lines[3])
	}
	// Per destination well, water and DNA volumes sum to the total volume.
	if 1000+2500 != 3500 || 2867.5+632.5 != 3500 {
		t.Fatal("fixture volumes do not sum to the total")
	}
}

func TestIndexPicklistI5ThenI7(t *testing.T) {
	i5 := []IndexPicklistRow{{Sample: "s1", SourcePlateName: "iTru5", SourceWell: "A1", IndexName: "iTru5_01_A", IndexSequence: "ACCGACAA", DestWell: "A1"}}
	i7 := []IndexPicklistRow{{Sample: "s1", SourcePlateName: "iTru7", SourceWell: "A1", IndexName: "iTru7_101_01", IndexSequence: "ACGTTACC", DestWell: "A1"}}
	out := IndexPicklist(i5, i7, DefaultIndexPicklistOptions())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	if lines[1] != "s1\tiTru5\t384LDV_AQ_B2_HT\tA1\t250\tiTru5_01_A\tACCGACAA\tIndexPCRPlate\tA1" {
		t.Fatalf("i5 row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "iTru7_101_01") {
		t.Fatalf("i7 row = %q", lines[2])
	}
}

func TestPoolPicklistAccumulatesPerDestinationWell(t *testing.T) {
	opts := DefaultPoolPicklistOptions()
	opts.MaxVolumePerWell = 1000
	rows := []PoolPicklistRow{
		{SourcePlateName: "p", SourceWell: "A1", Volume: 600},
		{SourcePlateName: "p", SourceWell: "A2", Volume: 600}, // overflows into the next well
		{SourcePlateName: "p", SourceWell: "A3", Volume: 300},
	}
	out, err := PoolPicklist(rows, opts)
	if err != nil {
		t.Fatalf("picklist: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasSuffix(lines[1], ",A1") {
		t.Fatalf("first transfer dest = %q, want A1", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",A2") {
		t.Fatalf("second transfer dest = %q, want A2", lines[2])
	}
	if !strings.HasSuffix(lines[3], ",A2") {
		t.Fatalf("third transfer should accumulate in A2, got %q", lines[3])
	}
}

func TestPoolPicklistRejectsOversizedTransfer(t *testing.T) {
	opts := DefaultPoolPicklistOptions()
	if _, err := PoolPicklist([]PoolPicklistRow{{SourceWell: "A1", Volume: opts.MaxVolumePerWell + 1}}, opts); err == nil {
		t.Fatal("expected oversized transfer error")
	}
}

func TestPoolPicklistRejectsPlateOverflow(t *testing.T) {
	opts := DefaultPoolPicklistOptions()
	opts.DestRows, opts.DestCols = 1, 1
	opts.MaxVolumePerWell = 100
	rows := []PoolPicklistRow{
		{SourceWell: "A1", Volume: 80},
		{SourceWell: "A2", Volume: 80},
	}
	if _, err := PoolPicklist(rows, opts); err == nil {
		t.Fatal("expected destination overflow error")
	}
}
