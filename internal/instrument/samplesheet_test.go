package instrument

import (
	"strings"
	"testing"
	"time"
)

func sheetFixture(model string, amplicon bool) SampleSheetData {
	return SampleSheetData{
		Comments:         []string{"PI,Dorothy,dorothy@lab.example"},
		InvestigatorName: "Dorothy",
		ExperimentName:   "exp 1",
		Date:             time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Assay:            "Metagenomics",
		Description:      "run 1",
		Chemistry:        "Default",
		FwdCycles:        151,
		RevCycles:        151,
		SequencerModel:   model,
		Amplicon:         amplicon,
		Samples: []SampleSheetSample{
			{Lane: 1, SampleID: "s 1", SampleName: "s 1", I7IndexID: "iTru7_101_01", I7Index: "ACGTTACC", I5IndexID: "iTru5_01_A", I5Index: "ACCGACAA", SampleProject: "run 1"},
		},
	}
}

func TestSampleSheetMultiLaneCarriesLaneColumn(t *testing.T) {
	out := SampleSheet(sheetFixture("HiSeq4000", false))
	if !strings.Contains(out, "Lane,Sample_ID,Sample_Name") {
		t.Fatal("multi-lane model must render the Lane column")
	}
	if !strings.Contains(out, "\n1,s_1,s_1,") {
		t.Fatalf("data row missing lane prefix:\n%s", out)
	}
}

func TestSampleSheetSingleLaneOmitsLaneColumn(t *testing.T) {
	out := SampleSheet(sheetFixture("MiSeq", false))
	if strings.Contains(out, "Lane,Sample_ID") {
		t.Fatal("single-lane model must not render the Lane column")
	}
	if !strings.Contains(out, "\ns_1,s_1,") {
		t.Fatalf("data row malformed:\n%s", out)
	}
}

func TestSampleSheetReverseComplementsI5(t *testing.T) {
	out := SampleSheet(sheetFixture("HiSeq4000", false))
	if !strings.Contains(out, "ReverseComplement,1") {
		t.Fatal("HiSeq4000 sheet must set ReverseComplement,1")
	}
	if !strings.Contains(out, ReverseComplement("ACCGACAA")) {
		t.Fatal("i5 sequence must be reverse-complemented")
	}
	if strings.Contains(out, ",ACCGACAA,") {
		t.Fatal("raw i5 sequence leaked into the data section")
	}

	out = SampleSheet(sheetFixture("MiSeq", false))
	if !strings.Contains(out, "ReverseComplement,0") {
		t.Fatal("MiSeq sheet must set ReverseComplement,0")
	}
	if !strings.Contains(out, "ACCGACAA") {
		t.Fatal("MiSeq sheet must carry the i5 sequence as stored")
	}
}

func TestSampleSheetAmpliconAdapters(t *testing.T) {
	out := SampleSheet(sheetFixture("MiSeq", true))
	if !strings.Contains(out, "Adapter,"+TruSeqHTAdapterRead1) {
		t.Fatal("amplicon sheet missing read-1 adapter")
	}
	if !strings.Contains(out, "AdapterRead2,"+TruSeqHTAdapterRead2) {
		t.Fatal("amplicon sheet missing read-2 adapter")
	}
	shotgun := SampleSheet(sheetFixture("MiSeq", false))
	if strings.Contains(shotgun, "Adapter,") {
		t.Fatal("shotgun sheet must not carry amplicon adapters")
	}
}

func TestSampleSheetHeaderLiterals(t *testing.T) {
	out := SampleSheet(sheetFixture("MiSeq", false))
	for _, want := range []string{
		"# PI,Dorothy,dorothy@lab.example",
		"IEMFileVersion,4",
		"Workflow,GenerateFASTQ",
		"Application,FASTQ Only",
		"Date,2024-05-02",
		"[Reads]\n151\n151",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("sheet missing %q:\n%s", want, out)
		}
	}
}
