package instrument

import (
	"fmt"
	"strings"
	"time"
)

// TruSeq-HT adapter sequences trimmed from amplicon reads.
const (
	TruSeqHTAdapterRead1 = "AGATCGGAAGAGCACACGTCTGAACTCCAGTCA"
	TruSeqHTAdapterRead2 = "AGATCGGAAGAGCGTCGTGTAGGGAAAGAGTGT"
)

// SampleSheetSample is one [Data] row of an Illumina sample sheet. Index
// sequences are given as stored; the renderer applies the i5 reverse
// complement when the sequencer model requires it.
type SampleSheetSample struct {
	Lane            int
	SampleID        string
	SampleName      string
	SamplePlate     string
	SampleWell      string
	I7IndexID       string
	I7Index         string
	I5IndexID       string
	I5Index         string
	SampleProject   string
	WellDescription string
}

// SampleSheetData holds everything a sample sheet render needs.
type SampleSheetData struct {
	// Comments carry PI and contact metadata, one "# "-prefixed line each.
	Comments         []string
	InvestigatorName string
	ExperimentName   string
	Date             time.Time
	Assay            string
	Description      string
	Chemistry        string
	FwdCycles        int
	RevCycles        int
	SequencerModel   string
	// Amplicon runs get the fixed TruSeq-HT adapter settings.
	Amplicon bool
	Samples  []SampleSheetSample
}

// SampleSheet renders the sectioned comma-separated Illumina sample sheet.
// The Lane column appears only for multi-lane sequencer models, and the i5
// index is reverse-complemented for the models whose workflow demands it.
func SampleSheet(data SampleSheetData) string {
	var b strings.Builder
	for _, comment := range data.Comments {
		b.WriteString("# ")
		b.WriteString(comment)
		b.WriteString("\n")
	}

	b.WriteString("[Header]\n")
	fmt.Fprintf(&b, "IEMFileVersion,4\n")
	fmt.Fprintf(&b, "Investigator Name,%s\n", data.InvestigatorName)
	fmt.Fprintf(&b, "Experiment Name,%s\n", data.ExperimentName)
	fmt.Fprintf(&b, "Date,%s\n", data.Date.Format("2006-01-02"))
	b.WriteString("Workflow,GenerateFASTQ\n")
	b.WriteString("Application,FASTQ Only\n")
	fmt.Fprintf(&b, "Assay,%s\n", data.Assay)
	fmt.Fprintf(&b, "Description,%s\n", data.Description)
	fmt.Fprintf(&b, "Chemistry,%s\n", data.Chemistry)
	b.WriteString("\n[Reads]\n")
	fmt.Fprintf(&b, "%d\n%d\n", data.FwdCycles, data.RevCycles)

	b.WriteString("\n[Settings]\n")
	reverseI5 := NeedsI5ReverseComplement(data.SequencerModel)
	if reverseI5 {
		b.WriteString("ReverseComplement,1\n")
	} else {
		b.WriteString("ReverseComplement,0\n")
	}
	if data.Amplicon {
		fmt.Fprintf(&b, "Adapter,%s\n", TruSeqHTAdapterRead1)
		fmt.Fprintf(&b, "AdapterRead2,%s\n", TruSeqHTAdapterRead2)
	}

	b.WriteString("\n[Data]\n")
	multiLane := LaneCount(data.SequencerModel) > 1
	if multiLane {
		b.WriteString("Lane,")
	}
	b.WriteString("Sample_ID,Sample_Name,Sample_Plate,Sample_Well,I7_Index_ID,index,I5_Index_ID,index2,Sample_Project,Well_Description\n")
	for _, sample := range data.Samples {
		i5 := sample.I5Index
		if reverseI5 {
			i5 = ReverseComplement(i5)
		}
		if multiLane {
			fmt.Fprintf(&b, "%d,", sample.Lane)
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			ScrubSampleName(sample.SampleID), ScrubSampleName(sample.SampleName),
			sample.SamplePlate, sample.SampleWell,
			sample.I7IndexID, sample.I7Index,
			sample.I5IndexID, i5,
			sample.SampleProject, sample.WellDescription)
	}
	return b.String()
}
