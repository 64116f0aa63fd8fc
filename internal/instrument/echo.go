package instrument

import (
	"fmt"
	"strings"

	"labcore/pkg/layout"
)

// Echo plate-type and destination literals expected by the wet lab.
const (
	DefaultNormalizationPlateType = "384PP_AQ_BP2_HT"
	DefaultIndexPlateType         = "384LDV_AQ_B2_HT"
	NormalizedDNAPlateName        = "NormalizedDNA"
	IndexPCRPlateName             = "IndexPCRPlate"
	DefaultIndexTransferVolume    = 250.0
	DefaultMaxVolumePerWell       = 30000.0
)

// NormalizationPicklistRow is one well of a normalization transfer: the DNA
// and water volumes land in the same destination well.
type NormalizationPicklistRow struct {
	SampleID      string
	SourceWell    string
	DestWell      string
	Concentration float64
	DNAVolume     float64
	WaterVolume   float64
}

// NormalizationPicklistOptions overrides the plate literals of a
// normalization picklist.
type NormalizationPicklistOptions struct {
	DNAPlateName    string
	WaterPlateName  string
	SourcePlateType string
	DestPlateName   string
}

// DefaultNormalizationPicklistOptions returns the wet-lab plate literals.
func DefaultNormalizationPicklistOptions() NormalizationPicklistOptions {
	return NormalizationPicklistOptions{
		DNAPlateName:    "Sample",
		WaterPlateName:  "Water",
		SourcePlateType: DefaultNormalizationPlateType,
		DestPlateName:   NormalizedDNAPlateName,
	}
}

// NormalizationPicklist renders the tab-separated Echo picklist for a
// normalization run: all water rows first, then the DNA rows in the same
// well order.
func NormalizationPicklist(rows []NormalizationPicklistRow, opts NormalizationPicklistOptions) string {
	var b strings.Builder
	b.WriteString("Sample ID\tSource Plate Name\tSource Plate Type\tSource Well\tConcentration\tTransfer Volume\tDestination Plate Name\tDestination Well\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%g\t%g\t%s\t%s\n",
			r.SampleID, opts.WaterPlateName, opts.SourcePlateType, r.SourceWell,
			r.Concentration, r.WaterVolume, opts.DestPlateName, r.DestWell)
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%g\t%g\t%s\t%s\n",
			r.SampleID, opts.DNAPlateName, opts.SourcePlateType, r.SourceWell,
			r.Concentration, r.DNAVolume, opts.DestPlateName, r.DestWell)
	}
	return b.String()
}

// IndexPicklistRow is one index-primer transfer of a shotgun prep.
type IndexPicklistRow struct {
	Sample          string
	SourcePlateName string
	SourceWell      string
	IndexName       string
	IndexSequence   string
	DestWell        string
}

// IndexPicklistOptions overrides the literals of a shotgun index picklist.
type IndexPicklistOptions struct {
	SourcePlateType string
	DestPlateName   string
	TransferVolume  float64
}

// DefaultIndexPicklistOptions returns the wet-lab index picklist literals.
func DefaultIndexPicklistOptions() IndexPicklistOptions {
	return IndexPicklistOptions{
		SourcePlateType: DefaultIndexPlateType,
		DestPlateName:   IndexPCRPlateName,
		TransferVolume:  DefaultIndexTransferVolume,
	}
}

// IndexPicklist renders the tab-separated Echo picklist assigning index
// primers to a shotgun library plate: all i5 rows, then all i7 rows.
func IndexPicklist(i5Rows, i7Rows []IndexPicklistRow, opts IndexPicklistOptions) string {
	var b strings.Builder
	b.WriteString("Sample\tSource Plate Name\tSource Plate Type\tSource Well\tTransfer Volume\tIndex Name\tIndex Sequence\tDestination Plate Name\tDestination Well\n")
	for _, rows := range [][]IndexPicklistRow{i5Rows, i7Rows} {
		for _, r := range rows {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%g\t%s\t%s\t%s\t%s\n",
				r.Sample, r.SourcePlateName, opts.SourcePlateType, r.SourceWell,
				opts.TransferVolume, r.IndexName, r.IndexSequence, opts.DestPlateName, r.DestWell)
		}
	}
	return b.String()
}

// PoolPicklistRow is one source-well contribution to a pool.
type PoolPicklistRow struct {
	SourcePlateName string
	SourceWell      string
	Concentration   float64
	Volume          float64
}

// PoolPicklistOptions parameterizes destination accumulation for a pooling
// picklist.
type PoolPicklistOptions struct {
	SourcePlateType  string
	DestPlateName    string
	MaxVolumePerWell float64
	DestRows         int
	DestCols         int
}

// DefaultPoolPicklistOptions returns the wet-lab pooling defaults: 30000 nL
// per destination well on a 16x24 plate.
func DefaultPoolPicklistOptions() PoolPicklistOptions {
	return PoolPicklistOptions{
		SourcePlateType:  DefaultNormalizationPlateType,
		DestPlateName:    NormalizedDNAPlateName,
		MaxVolumePerWell: DefaultMaxVolumePerWell,
		DestRows:         16,
		DestCols:         24,
	}
}

// PoolPicklist renders the comma-separated Echo picklist combining source
// wells into pool destination wells. Volumes accumulate per destination
// well up to MaxVolumePerWell before advancing row-major to the next
// destination well. A single transfer exceeding the per-well maximum, or
// running out of destination wells, is an error.
func PoolPicklist(rows []PoolPicklistRow, opts PoolPicklistOptions) (string, error) {
	var b strings.Builder
	b.WriteString("Source Plate Name,Source Plate Type,Source Well,Concentration,Transfer Volume,Destination Plate Name,Destination Well\n")

	destIndex := 0
	accumulated := 0.0
	totalDest := opts.DestRows * opts.DestCols
	for _, r := range rows {
		if r.Volume > opts.MaxVolumePerWell {
			return "", fmt.Errorf("transfer of %g nL from %s %s exceeds per-well maximum %g nL",
				r.Volume, r.SourcePlateName, r.SourceWell, opts.MaxVolumePerWell)
		}
		if accumulated+r.Volume > opts.MaxVolumePerWell {
			destIndex++
			accumulated = 0
		}
		if destIndex >= totalDest {
			return "", fmt.Errorf("pool overflows the %dx%d destination plate", opts.DestRows, opts.DestCols)
		}
		accumulated += r.Volume
		destWell, err := layout.WellNameByIndex(destIndex, opts.DestRows, opts.DestCols)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s,%s,%s,%g,%g,%s,%s\n",
			r.SourcePlateName, opts.SourcePlateType, r.SourceWell,
			r.Concentration, r.Volume, opts.DestPlateName, destWell)
	}
	return b.String(), nil
}
