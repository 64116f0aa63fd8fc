package core

import (
	"strings"
	"testing"
)

// amplicon16SRun builds the full amplicon pipeline through pooling and
// sequencing on a MiSeq.
type amplicon16SRun struct {
	libPlateID int64
	prepProcID int64
	poolProcID int64
	seqProcID  int64
}

func (f *fixture) buildAmplicon16SRun() amplicon16SRun {
	f.t.Helper()
	plating := f.plateSamples("Test plate 1")
	extraction := f.extractGDNA(plating.Plate.ID, "Test gDNA plate 1")
	primerPlate := f.seedPrimerSet("EMP 16S V4", "515rcbc", f.config2x2)
	prep := f.prep16S(extraction.Plate.ID, primerPlate.ID, "Test 16S plate 1")
	quant := f.quantifyPlate(prep.Plate.ID, [][]float64{{2, 7.89}, {100, 0}})
	pool := f.poolWells(quant.ID, "Test pool 1", f.wellsOf(prep.Plate.ID), 1500)
	seq := f.sequence(f.miseq.ID, "Test Run 1", []int64{pool.Pool.ID})
	return amplicon16SRun{
		libPlateID: prep.Plate.ID,
		prepProcID: prep.Process.ID,
		poolProcID: pool.Process.ID,
		seqProcID:  seq.ID,
	}
}

func TestGeneratePrepSheetJoinsLineage(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()

	sheet, err := f.svc.GeneratePrepSheet(f.ctx, run.prepProcID)
	if err != nil {
		t.Fatalf("generate prep sheet: %v", err)
	}
	lines := strings.Split(strings.TrimRight(sheet, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3 rows", len(lines))
	}
	header := strings.Split(lines[0], "\t")
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("header missing column %q", name)
		return -1
	}
	var s1Row []string
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if fields[col("sample_name")] == "S1" {
			s1Row = fields
		}
	}
	if s1Row == nil {
		t.Fatalf("no row for S1:\n%s", sheet)
	}
	for _, want := range []struct{ column, value string }{
		{"primer", "515rcbc_0"},
		{"sample_plate", "Test 16S plate 1"},
		{"well_id", "A1"},
		{"extraction_robot", "JerE"},
		{"extractionkit_lot", "157022406"},
		{"extraction_tool", "108379Z"},
		{"mastermix_lot", "443912"},
		{"water_lot", "RNBF7110"},
		{"processing_robot", "JerE"},
		{"project_name", "Study 1"},
	} {
		if got := s1Row[col(want.column)]; got != want.value {
			t.Fatalf("%s = %q, want %q", want.column, got, want.value)
		}
	}
}

func TestGenerateEpMotionPoolFileFromPooling(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()

	file, err := f.svc.GenerateEpMotionPoolFile(f.ctx, run.poolProcID)
	if err != nil {
		t.Fatalf("generate epmotion file: %v", err)
	}
	if !strings.HasPrefix(file, "Rack,Source,Rack,Destination,Volume,Tool\r\n") {
		t.Fatalf("header malformed:\n%s", file)
	}
	if !strings.Contains(file, "1,A1,1,1,1500.000,1\r\n") {
		t.Fatalf("missing A1 transfer row:\n%s", file)
	}
	if got := strings.Count(file, "\r\n"); got != 4 {
		t.Fatalf("got %d lines, want header plus 3 transfers", got)
	}
}

func TestGeneratePoolPicklistFromPooling(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()

	picklist, err := f.svc.GeneratePoolPicklist(f.ctx, run.poolProcID)
	if err != nil {
		t.Fatalf("generate pool picklist: %v", err)
	}
	if !strings.Contains(picklist, "Test 16S plate 1,384PP_AQ_BP2_HT,A1,2,1500,NormalizedDNA,A1\n") {
		t.Fatalf("missing A1 transfer:\n%s", picklist)
	}
}

func TestGenerateSampleSheetAmplicon(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()

	sheet, err := f.svc.GenerateSampleSheet(f.ctx, run.seqProcID)
	if err != nil {
		t.Fatalf("generate sample sheet: %v", err)
	}
	for _, want := range []string{
		"# PI,Dorothy,dorothy@lab.example",
		"# Contact,Dorothy,dorothy@lab.example",
		"ReverseComplement,0",
		"Adapter,",
		"Date,2024-05-02",
	} {
		if !strings.Contains(sheet, want) {
			t.Fatalf("sheet missing %q:\n%s", want, sheet)
		}
	}
	// One row per pool carrying the destination tube name, no lane column on
	// a MiSeq.
	if !strings.Contains(sheet, "\nTest_pool_1,Test_pool_1,") {
		t.Fatalf("missing pool row:\n%s", sheet)
	}
	if strings.Contains(sheet, "Lane,Sample_ID") {
		t.Fatal("MiSeq sheet must not carry a Lane column")
	}
}

func TestGenerateSampleSheetShotgun(t *testing.T) {
	f := newFixture(t)
	run := f.buildShotgunRun()
	grid := make([][]float64, 4)
	for r := range grid {
		grid[r] = []float64{10, 10, 10, 10}
	}
	quant := f.quantifyPlate(run.prep.Plate.ID, grid)
	pool := f.poolWells(quant.ID, "Test shotgun pool 1", f.wellsOf(run.prep.Plate.ID), 100)
	seq := f.sequence(f.hiseq.ID, "Test Run 2", []int64{pool.Pool.ID})

	sheet, err := f.svc.GenerateSampleSheet(f.ctx, seq.ID)
	if err != nil {
		t.Fatalf("generate sample sheet: %v", err)
	}
	if !strings.Contains(sheet, "ReverseComplement,1") {
		t.Fatal("HiSeq4000 run must reverse-complement i5")
	}
	if strings.Contains(sheet, "Adapter,") {
		t.Fatal("shotgun sheet must not carry amplicon adapters")
	}
	if !strings.Contains(sheet, "Lane,Sample_ID") {
		t.Fatal("HiSeq4000 sheet must carry a Lane column")
	}
	// Per-sample rows with index assignments replace the pool row.
	if !strings.Contains(sheet, "\n1,S1,S1,Test shotgun plate 1,A1,iTru7_0,") {
		t.Fatalf("missing S1 data row:\n%s", sheet)
	}
	if !strings.Contains(sheet, "iTru5_0,") {
		t.Fatalf("missing i5 assignment:\n%s", sheet)
	}
	if !strings.Contains(sheet, "Test shotgun plate 1.A1") {
		t.Fatalf("missing well description:\n%s", sheet)
	}
	if strings.Contains(sheet, "Test_shotgun_pool_1") {
		t.Fatal("shotgun pool must not produce a tube row")
	}
}

func TestGenerateNormalizationPicklist(t *testing.T) {
	f := newFixture(t)
	run := f.buildShotgunRun()

	picklist, err := f.svc.GenerateNormalizationPicklist(f.ctx, run.normProcess.ID)
	if err != nil {
		t.Fatalf("generate normalization picklist: %v", err)
	}
	lines := strings.Split(strings.TrimRight(picklist, "\n"), "\n")
	if len(lines) != 25 {
		t.Fatalf("got %d lines, want header plus 12 water rows plus 12 DNA rows", len(lines))
	}
	if !strings.Contains(picklist, "S1\tWater\t384PP_AQ_BP2_HT\tA1\t2\t1000\tNormalizedDNA\tA1\n") {
		t.Fatalf("missing water row:\n%s", picklist)
	}
	if !strings.Contains(picklist, "S1\tSample\t384PP_AQ_BP2_HT\tA1\t2\t2500\tNormalizedDNA\tA1\n") {
		t.Fatalf("missing DNA row:\n%s", picklist)
	}
}

func TestGenerateIndexPicklist(t *testing.T) {
	f := newFixture(t)
	run := f.buildShotgunRun()

	picklist, err := f.svc.GenerateIndexPicklist(f.ctx, run.prep.Process.ID)
	if err != nil {
		t.Fatalf("generate index picklist: %v", err)
	}
	lines := strings.Split(strings.TrimRight(picklist, "\n"), "\n")
	if len(lines) != 25 {
		t.Fatalf("got %d lines, want header plus 12 i5 rows plus 12 i7 rows", len(lines))
	}
	// The first interleaved well A1 draws its i5 primer from the row-major
	// first well of the i5 working plate.
	if !strings.Contains(picklist, "S1\tiTru5 template plate 2024-05-02\t384LDV_AQ_B2_HT\tA1\t250\tiTru5_0\t") {
		t.Fatalf("missing i5 row:\n%s", picklist)
	}
	if !strings.Contains(picklist, "\tiTru7_0\t") {
		t.Fatalf("missing i7 assignment:\n%s", picklist)
	}
}

func TestGenerateArtifactsRejectWrongProcessType(t *testing.T) {
	f := newFixture(t)
	run := f.buildAmplicon16SRun()

	if _, err := f.svc.GenerateSampleSheet(f.ctx, run.poolProcID); err == nil {
		t.Fatal("sample sheet from a pooling process must fail")
	}
	if _, err := f.svc.GeneratePrepSheet(f.ctx, run.seqProcID); err == nil {
		t.Fatal("prep sheet from a sequencing process must fail")
	}
	if _, err := f.svc.GenerateEpMotionPoolFile(f.ctx, run.prepProcID); err == nil {
		t.Fatal("epmotion file from a prep process must fail")
	}
}
