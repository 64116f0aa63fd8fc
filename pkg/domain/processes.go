package domain

import (
	"encoding/json"
	"time"
)

// ProcessType discriminates the closed set of process variants.
type ProcessType string

// Process variant tags, in pipeline order.
const (
	ProcessSamplePlating              ProcessType = "sample plating"
	ProcessReagentCreation            ProcessType = "reagent creation"
	ProcessPrimerWorkingPlateCreation ProcessType = "primer working plate creation"
	ProcessGDNAExtraction             ProcessType = "gDNA extraction"
	ProcessGDNAPlateCompression       ProcessType = "gDNA plate compression"
	ProcessLibraryPrep16S             ProcessType = "16S library prep"
	ProcessNormalization              ProcessType = "gDNA normalization"
	ProcessLibraryPrepShotgun         ProcessType = "shotgun library prep"
	ProcessQuantification             ProcessType = "quantification"
	ProcessPooling                    ProcessType = "pooling"
	ProcessSequencing                 ProcessType = "sequencing"
)

// ProcessBase carries the attributes common to every process variant. Date
// defaults to the transaction time and may be backdated at creation.
type ProcessBase struct {
	ID         int64     `json:"id"`
	Date       time.Time `json:"date"`
	OperatorID int64     `json:"operator_id"`
	Notes      *string   `json:"notes,omitempty"`
}

// Process is the closed-union handle over all process variants.
type Process interface {
	// ProcessID returns the record id within the shared process id space.
	ProcessID() int64
	// ProcessType returns the variant discriminant.
	ProcessType() ProcessType
	// Common returns the shared process attributes.
	Common() ProcessBase
}

// SamplePlatingProcess records the creation of a sample plate where every
// grid cell starts as a blank.
type SamplePlatingProcess struct {
	ProcessBase
	PlateID int64 `json:"plate_id"`
}

// ReagentCreationProcess records registration of a reagent lot in a tube.
type ReagentCreationProcess struct {
	ProcessBase
	TubeID        int64 `json:"tube_id"`
	CompositionID int64 `json:"composition_id"`
}

// PrimerWorkingPlateCreationProcess records replication of primer template
// plates into working plates.
type PrimerWorkingPlateCreationProcess struct {
	ProcessBase
	PrimerSetID    int64   `json:"primer_set_id"`
	MasterSetOrder string  `json:"master_set_order"`
	PlateIDs       []int64 `json:"plate_ids"`
}

// GDNAExtractionProcess records extraction of gDNA from a sample plate.
type GDNAExtractionProcess struct {
	ProcessBase
	SourcePlateID       int64   `json:"source_plate_id"`
	OutputPlateID       int64   `json:"output_plate_id"`
	RobotID             int64   `json:"robot_id"`
	ToolID              int64   `json:"tool_id"`
	KitID               int64   `json:"kit_id"`
	Volume              float64 `json:"volume"`
	ExternallyExtracted bool    `json:"externally_extracted"`
}

// GDNAPlateCompressionProcess records interleaved compression of up to four
// gDNA plates onto one 4x-larger plate. GDNAPlateIDs preserves quarter order,
// with repeats when the same plate fills multiple quarters.
type GDNAPlateCompressionProcess struct {
	ProcessBase
	RobotID       int64   `json:"robot_id"`
	GDNAPlateIDs  []int64 `json:"gdna_plate_ids"`
	OutputPlateID int64   `json:"output_plate_id"`
}

// LibraryPrep16SProcess records an amplicon library prep run.
type LibraryPrep16SProcess struct {
	ProcessBase
	GDNAPlateID   int64   `json:"gdna_plate_id"`
	PrimerPlateID int64   `json:"primer_plate_id"`
	OutputPlateID int64   `json:"output_plate_id"`
	RobotID       int64   `json:"robot_id"`
	Tool300ID     int64   `json:"tool_300_id"`
	Tool50ID      int64   `json:"tool_50_id"`
	MasterMixID   int64   `json:"master_mix_id"`
	WaterLotID    int64   `json:"water_lot_id"`
	Volume        float64 `json:"volume"`
}

// NormalizationParams are the numeric inputs of a normalization run, stored
// on the process verbatim for audit and replay. Volumes are in nL, the
// target mass in ng.
type NormalizationParams struct {
	TotalVolume float64 `json:"total_vol"`
	TargetDNA   float64 `json:"target_dna"`
	MinVolume   float64 `json:"min_vol"`
	MaxVolume   float64 `json:"max_vol"`
	Resolution  float64 `json:"resolution"`
	Reformat    bool    `json:"reformat"`
}

// DefaultNormalizationParams returns the wet-lab default normalization
// parameters: 3500 nL total, 5 ng target, [2.5, 3500] nL clip window at
// 2.5 nL resolution, no reformat.
func DefaultNormalizationParams() NormalizationParams {
	return NormalizationParams{
		TotalVolume: 3500,
		TargetDNA:   5,
		MinVolume:   2.5,
		MaxVolume:   3500,
		Resolution:  2.5,
		Reformat:    false,
	}
}

// NormalizationProcess records dilution of a quantified compressed plate.
type NormalizationProcess struct {
	ProcessBase
	QuantificationProcessID int64               `json:"quantification_process_id"`
	WaterLotID              int64               `json:"water_lot_id"`
	OutputPlateID           int64               `json:"output_plate_id"`
	Params                  NormalizationParams `json:"params"`
}

// LibraryPrepShotgunProcess records a shotgun library prep run.
type LibraryPrepShotgunProcess struct {
	ProcessBase
	NormalizedPlateID int64   `json:"normalized_plate_id"`
	I5PlateID         int64   `json:"i5_plate_id"`
	I7PlateID         int64   `json:"i7_plate_id"`
	OutputPlateID     int64   `json:"output_plate_id"`
	KitID             int64   `json:"kit_id"`
	StubLotID         int64   `json:"stub_lot_id"`
	Volume            float64 `json:"volume"`
}

// ConcentrationReading stores one raw quantification row, plus the derived
// nanomolar concentration once computed.
type ConcentrationReading struct {
	CompositionID    int64    `json:"composition_id"`
	RawConcentration float64  `json:"raw_concentration"`
	Concentration    *float64 `json:"concentration,omitempty"`
}

// QuantificationProcess records raw concentration readings, either for a
// whole plate or for a manual composition list.
type QuantificationProcess struct {
	ProcessBase
	PlateID  *int64                 `json:"plate_id,omitempty"`
	Readings []ConcentrationReading `json:"readings"`
}

// PoolingProcess records combination of quantified compositions into a tube.
// FunctionName and FunctionParameters describe how volumes were computed and
// are recorded verbatim, never reinterpreted.
type PoolingProcess struct {
	ProcessBase
	QuantificationProcessID int64           `json:"quantification_process_id"`
	RobotID                 *int64          `json:"robot_id,omitempty"`
	FunctionName            string          `json:"function_name,omitempty"`
	FunctionParameters      json.RawMessage `json:"function_parameters,omitempty"`
	DestinationTubeID       int64           `json:"destination_tube_id"`
	PoolCompositionID       int64           `json:"pool_composition_id"`
}

// SequencingProcess records submission of pools to a sequencer. Lane
// assignment is the 1-based order of PoolIDs.
type SequencingProcess struct {
	ProcessBase
	RunName                 string  `json:"run_name"`
	ExperimentName          string  `json:"experiment_name"`
	SequencerID             int64   `json:"sequencer_id"`
	FwdCycles               int     `json:"fwd_cycles"`
	RevCycles               int     `json:"rev_cycles"`
	Assay                   string  `json:"assay"`
	PrincipalInvestigatorID int64   `json:"principal_investigator_id"`
	ContactIDs              []int64 `json:"contact_ids"`
	PoolIDs                 []int64 `json:"pool_ids"`
}

func (p SamplePlatingProcess) ProcessID() int64              { return p.ID }
func (p ReagentCreationProcess) ProcessID() int64            { return p.ID }
func (p PrimerWorkingPlateCreationProcess) ProcessID() int64 { return p.ID }
func (p GDNAExtractionProcess) ProcessID() int64             { return p.ID }
func (p GDNAPlateCompressionProcess) ProcessID() int64       { return p.ID }
func (p LibraryPrep16SProcess) ProcessID() int64             { return p.ID }
func (p NormalizationProcess) ProcessID() int64              { return p.ID }
func (p LibraryPrepShotgunProcess) ProcessID() int64         { return p.ID }
func (p QuantificationProcess) ProcessID() int64             { return p.ID }
func (p PoolingProcess) ProcessID() int64                    { return p.ID }
func (p SequencingProcess) ProcessID() int64                 { return p.ID }

func (p SamplePlatingProcess) ProcessType() ProcessType   { return ProcessSamplePlating }
func (p ReagentCreationProcess) ProcessType() ProcessType { return ProcessReagentCreation }
func (p PrimerWorkingPlateCreationProcess) ProcessType() ProcessType {
	return ProcessPrimerWorkingPlateCreation
}
func (p GDNAExtractionProcess) ProcessType() ProcessType       { return ProcessGDNAExtraction }
func (p GDNAPlateCompressionProcess) ProcessType() ProcessType { return ProcessGDNAPlateCompression }
func (p LibraryPrep16SProcess) ProcessType() ProcessType       { return ProcessLibraryPrep16S }
func (p NormalizationProcess) ProcessType() ProcessType        { return ProcessNormalization }
func (p LibraryPrepShotgunProcess) ProcessType() ProcessType   { return ProcessLibraryPrepShotgun }
func (p QuantificationProcess) ProcessType() ProcessType       { return ProcessQuantification }
func (p PoolingProcess) ProcessType() ProcessType              { return ProcessPooling }
func (p SequencingProcess) ProcessType() ProcessType           { return ProcessSequencing }

func (p SamplePlatingProcess) Common() ProcessBase              { return p.ProcessBase }
func (p ReagentCreationProcess) Common() ProcessBase            { return p.ProcessBase }
func (p PrimerWorkingPlateCreationProcess) Common() ProcessBase { return p.ProcessBase }
func (p GDNAExtractionProcess) Common() ProcessBase             { return p.ProcessBase }
func (p GDNAPlateCompressionProcess) Common() ProcessBase       { return p.ProcessBase }
func (p LibraryPrep16SProcess) Common() ProcessBase             { return p.ProcessBase }
func (p NormalizationProcess) Common() ProcessBase              { return p.ProcessBase }
func (p LibraryPrepShotgunProcess) Common() ProcessBase         { return p.ProcessBase }
func (p QuantificationProcess) Common() ProcessBase             { return p.ProcessBase }
func (p PoolingProcess) Common() ProcessBase                    { return p.ProcessBase }
func (p SequencingProcess) Common() ProcessBase                 { return p.ProcessBase }
