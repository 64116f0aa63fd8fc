package domain

import "time"

// CompositionType discriminates the closed set of composition variants. The
// tag is stored with every composition record and drives factory dispatch.
type CompositionType string

// Composition variant tags. The strings double as human-readable stage names
// in generated files and notes.
const (
	CompositionSample             CompositionType = "sample"
	CompositionReagent            CompositionType = "reagent"
	CompositionPrimerSet          CompositionType = "primer set"
	CompositionPrimer             CompositionType = "primer"
	CompositionGDNA               CompositionType = "gDNA"
	CompositionCompressedGDNA     CompositionType = "compressed gDNA"
	CompositionNormalizedGDNA     CompositionType = "normalized gDNA"
	CompositionLibraryPrep16S     CompositionType = "16S library prep"
	CompositionLibraryPrepShotgun CompositionType = "shotgun library prep"
	CompositionPool               CompositionType = "pool"
)

// Sample composition types. Everything except the experimental type is a
// control; wells start out as blanks when a plate is first plated.
const (
	SampleTypeExperimental          = "experimental sample"
	SampleTypeBlank                 = "blank"
	SampleTypeEmpty                 = "empty"
	SampleTypeVibrioPositiveControl = "vibrio.positive.control"
	SampleTypeZymoMock              = "zymo.mock"
)

// ControlSampleTypes lists the registered control vocabulary, matched exactly
// against requested well content during sample reclassification.
func ControlSampleTypes() []string {
	return []string{
		SampleTypeBlank,
		SampleTypeEmpty,
		SampleTypeVibrioPositiveControl,
		SampleTypeZymoMock,
	}
}

// IsControlSampleType reports whether s names a registered control type.
func IsControlSampleType(s string) bool {
	for _, c := range ControlSampleTypes() {
		if s == c {
			return true
		}
	}
	return false
}

// CompositionBase carries the attributes common to every composition variant.
// The upstream process and container references are fixed at creation.
type CompositionBase struct {
	ID          int64        `json:"id"`
	Container   ContainerRef `json:"container"`
	TotalVolume float64      `json:"total_volume"`
	Notes       *string      `json:"notes,omitempty"`
	ProcessID   int64        `json:"process_id"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Composition is the closed-union handle over all composition variants.
type Composition interface {
	// CompositionID returns the record id within the shared composition id space.
	CompositionID() int64
	// CompositionType returns the variant discriminant.
	CompositionType() CompositionType
	// Common returns the shared composition attributes.
	Common() CompositionBase
}

// SampleComposition is the leaf of every experimental derivation chain. For
// controls SampleID is nil and Content carries the disambiguated control
// label.
type SampleComposition struct {
	CompositionBase
	Content               string  `json:"content"`
	SampleCompositionType string  `json:"sample_composition_type"`
	SampleID              *string `json:"sample_id,omitempty"`
}

// ReagentComposition is a lot-tracked reagent in a tube.
type ReagentComposition struct {
	CompositionBase
	ExternalLotID string `json:"external_lot_id"`
	ReagentType   string `json:"reagent_type"`
}

// PrimerSetComposition is a template primer on a primer-set template plate.
type PrimerSetComposition struct {
	CompositionBase
	Barcode     string `json:"barcode"`
	ExternalID  string `json:"external_id"`
	PrimerSetID int64  `json:"primer_set_id"`
}

// PrimerComposition is the working-plate copy of a template primer.
type PrimerComposition struct {
	CompositionBase
	PrimerSetCompositionID int64 `json:"primer_set_composition_id"`
}

// GDNAComposition is genomic DNA extracted from a sample.
type GDNAComposition struct {
	CompositionBase
	SampleCompositionID int64 `json:"sample_composition_id"`
}

// CompressedGDNAComposition is gDNA relocated onto a compressed plate.
type CompressedGDNAComposition struct {
	CompositionBase
	GDNACompositionID int64 `json:"gdna_composition_id"`
}

// NormalizedGDNAComposition is compressed gDNA diluted to a target mass.
type NormalizedGDNAComposition struct {
	CompositionBase
	CompressedGDNACompositionID int64   `json:"compressed_gdna_composition_id"`
	DNAVolume                   float64 `json:"dna_volume"`
	WaterVolume                 float64 `json:"water_volume"`
}

// LibraryPrep16SComposition is an amplicon library built from gDNA and a
// working primer at the same grid position.
type LibraryPrep16SComposition struct {
	CompositionBase
	GDNACompositionID   int64 `json:"gdna_composition_id"`
	PrimerCompositionID int64 `json:"primer_composition_id"`
}

// LibraryPrepShotgunComposition is a shotgun library built from normalized
// gDNA and an assigned (i5, i7) index primer pair.
type LibraryPrepShotgunComposition struct {
	CompositionBase
	NormalizedGDNACompositionID int64 `json:"normalized_gdna_composition_id"`
	I5PrimerCompositionID       int64 `json:"i5_primer_composition_id"`
	I7PrimerCompositionID       int64 `json:"i7_primer_composition_id"`
}

// PoolComponent is one weighted input of a pool.
type PoolComponent struct {
	CompositionID      int64   `json:"composition_id"`
	InputVolume        float64 `json:"input_volume"`
	PercentageOfOutput float64 `json:"percentage_of_output"`
}

// PoolComposition is a weighted combination of upstream compositions. Pools
// may contain other pools; components are adjacency entries into the shared
// composition id space, never owning references.
type PoolComposition struct {
	CompositionBase
	Components []PoolComponent `json:"components"`
}

// CompositionID implementations keep the variants addressable through the
// shared id space.
func (c SampleComposition) CompositionID() int64             { return c.ID }
func (c ReagentComposition) CompositionID() int64            { return c.ID }
func (c PrimerSetComposition) CompositionID() int64          { return c.ID }
func (c PrimerComposition) CompositionID() int64             { return c.ID }
func (c GDNAComposition) CompositionID() int64               { return c.ID }
func (c CompressedGDNAComposition) CompositionID() int64     { return c.ID }
func (c NormalizedGDNAComposition) CompositionID() int64     { return c.ID }
func (c LibraryPrep16SComposition) CompositionID() int64     { return c.ID }
func (c LibraryPrepShotgunComposition) CompositionID() int64 { return c.ID }
func (c PoolComposition) CompositionID() int64               { return c.ID }

func (c SampleComposition) CompositionType() CompositionType         { return CompositionSample }
func (c ReagentComposition) CompositionType() CompositionType        { return CompositionReagent }
func (c PrimerSetComposition) CompositionType() CompositionType      { return CompositionPrimerSet }
func (c PrimerComposition) CompositionType() CompositionType         { return CompositionPrimer }
func (c GDNAComposition) CompositionType() CompositionType           { return CompositionGDNA }
func (c CompressedGDNAComposition) CompositionType() CompositionType { return CompositionCompressedGDNA }
func (c NormalizedGDNAComposition) CompositionType() CompositionType { return CompositionNormalizedGDNA }
func (c LibraryPrep16SComposition) CompositionType() CompositionType { return CompositionLibraryPrep16S }
func (c LibraryPrepShotgunComposition) CompositionType() CompositionType {
	return CompositionLibraryPrepShotgun
}
func (c PoolComposition) CompositionType() CompositionType { return CompositionPool }

func (c SampleComposition) Common() CompositionBase             { return c.CompositionBase }
func (c ReagentComposition) Common() CompositionBase            { return c.CompositionBase }
func (c PrimerSetComposition) Common() CompositionBase          { return c.CompositionBase }
func (c PrimerComposition) Common() CompositionBase             { return c.CompositionBase }
func (c GDNAComposition) Common() CompositionBase               { return c.CompositionBase }
func (c CompressedGDNAComposition) Common() CompositionBase     { return c.CompositionBase }
func (c NormalizedGDNAComposition) Common() CompositionBase     { return c.CompositionBase }
func (c LibraryPrep16SComposition) Common() CompositionBase     { return c.CompositionBase }
func (c LibraryPrepShotgunComposition) Common() CompositionBase { return c.CompositionBase }
func (c PoolComposition) Common() CompositionBase               { return c.CompositionBase }
