package instrument

import (
	"strings"
	"testing"
)

func TestPrepSheet(t *testing.T) {
	out := PrepSheet([]PrepSheetRow{{
		SampleName:      "s1",
		Barcode:         "AGCCTTCGTCGC",
		PrimerSequence:  "515rcbc0",
		Plate:           "Test plate 1",
		Well:            "A1",
		ExtractionRobot: "Carmen_HOWE_KF3",
		ExtractionKit:   "157022406",
		ExtractionTool:  "108379Z",
		MasterMixLot:    "443912",
		WaterLot:        "RNBF7110",
		ProcessingRobot: "JerE",
		Project:         "Study 1",
	}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus 1 row", len(lines))
	}
	header := strings.Split(lines[0], "\t")
	if len(header) != 14 {
		t.Fatalf("header has %d columns, want 14", len(header))
	}
	if header[0] != "sample_name" || header[12] != "platform" || header[13] != "sequencing_meth" {
		t.Fatalf("header = %v", header)
	}
	row := strings.Split(lines[1], "\t")
	if len(row) != 14 {
		t.Fatalf("row has %d columns, want 14", len(row))
	}
	if row[12] != PrepSheetPlatform || row[13] != PrepSheetSequencingMeth {
		t.Fatalf("fixed literals = %q / %q", row[12], row[13])
	}
	if row[0] != "s1" || row[4] != "A1" {
		t.Fatalf("row = %v", row)
	}
}
