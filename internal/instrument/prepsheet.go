package instrument

import (
	"fmt"
	"strings"
)

// Fixed prep-sheet literals.
const (
	PrepSheetPlatform       = "Illumina"
	PrepSheetSequencingMeth = "Sequencing by synthesis"
)

// PrepSheetRow is one physical sample/control well joined across its full
// upstream lineage.
type PrepSheetRow struct {
	SampleName      string
	Barcode         string
	PrimerSequence  string
	Plate           string
	Well            string
	ExtractionRobot string
	ExtractionKit   string
	ExtractionTool  string
	MasterMixLot    string
	WaterLot        string
	ProcessingRobot string
	Project         string
}

// PrepSheet renders the tab-separated prep-information sheet. The index
// column is the resolved sample name: the original external sample id when
// unique on the plate, the disambiguated content otherwise.
func PrepSheet(rows []PrepSheetRow) string {
	var b strings.Builder
	b.WriteString(strings.Join([]string{
		"sample_name", "barcode", "primer", "sample_plate", "well_id",
		"extraction_robot", "extractionkit_lot", "extraction_tool",
		"mastermix_lot", "water_lot", "processing_robot", "project_name",
		"platform", "sequencing_meth",
	}, "\t"))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SampleName, r.Barcode, r.PrimerSequence, r.Plate, r.Well,
			r.ExtractionRobot, r.ExtractionKit, r.ExtractionTool,
			r.MasterMixLot, r.WaterLot, r.ProcessingRobot, r.Project,
			PrepSheetPlatform, PrepSheetSequencingMeth)
	}
	return b.String()
}
