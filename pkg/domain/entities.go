// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by labcore.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies an operator record.
	EntityUser EntityType = "user"
	// EntityEquipment identifies a piece of lab equipment.
	EntityEquipment EntityType = "equipment"
	// EntityStudy identifies an external study registration.
	EntityStudy EntityType = "study"
	// EntityPlateConfiguration identifies a plate geometry definition.
	EntityPlateConfiguration EntityType = "plate_configuration"
	// EntityPlate identifies a physical plate record.
	EntityPlate EntityType = "plate"
	// EntityWell identifies a well container on a plate.
	EntityWell EntityType = "well"
	// EntityTube identifies a free-standing tube container.
	EntityTube EntityType = "tube"
	// EntityComposition identifies any composition variant record.
	EntityComposition EntityType = "composition"
	// EntityProcess identifies any process variant record.
	EntityProcess EntityType = "process"
	// EntityPrimerSet identifies a 16S primer set template registration.
	EntityPrimerSet EntityType = "primer_set"
	// EntityShotgunPrimerSet identifies a shotgun index primer set with its combo cursor.
	EntityShotgunPrimerSet EntityType = "shotgun_primer_set"
)

// Base contains common fields for all domain records. Records are identified
// by an integer id scoped to their entity type; two records of different
// types are never the same entity even when ids coincide.
type Base struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityRef names a record by (type, id). Refs compare with ==.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   int64      `json:"id"`
}

// User represents an operator who runs processes.
type User struct {
	Base
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Equipment represents a robot, tool, or sequencer referenced by processes.
type Equipment struct {
	Base
	ExternalID    string  `json:"external_id"`
	EquipmentType string  `json:"equipment_type"`
	Notes         *string `json:"notes,omitempty"`
}

// Study represents an external sample registry scope. SpecimenIDColumn, when
// configured, names the study metadata column used as the human-facing
// specimen alias.
type Study struct {
	Base
	Title            string  `json:"title"`
	Alias            string  `json:"alias"`
	SpecimenIDColumn *string `json:"specimen_id_column,omitempty"`
}

// PlateConfiguration fixes the row/column geometry of a plate at creation.
type PlateConfiguration struct {
	Base
	Description string `json:"description"`
	NumRows     int    `json:"num_rows"`
	NumColumns  int    `json:"num_columns"`
}

// Plate is a 2-D grid of wells with shared metadata.
type Plate struct {
	Base
	ExternalID           string  `json:"external_id"`
	PlateConfigurationID int64   `json:"plate_configuration_id"`
	Discarded            bool    `json:"discarded"`
	Notes                *string `json:"notes,omitempty"`
}

// ContainerKind discriminates the two physical container variants.
type ContainerKind string

// Container variants. Wells and tubes share one container id space.
const (
	ContainerWell ContainerKind = "well"
	ContainerTube ContainerKind = "tube"
)

// ContainerRef addresses a container without owning it.
type ContainerRef struct {
	Kind ContainerKind `json:"kind"`
	ID   int64         `json:"id"`
}

// Well is a container at a fixed (row, column) position on a plate. Row and
// column are 1-based and immutable after creation; the composition reference
// is fixed at creation (1:1 container to composition).
type Well struct {
	Base
	PlateID         int64   `json:"plate_id"`
	Row             int     `json:"row"`
	Column          int     `json:"column"`
	CompositionID   int64   `json:"composition_id"`
	RemainingVolume float64 `json:"remaining_volume"`
	Notes           *string `json:"notes,omitempty"`
	LatestProcessID int64   `json:"latest_process_id"`
}

// Tube is a free-standing container. Discarding is a one-way transition.
type Tube struct {
	Base
	ExternalID      string  `json:"external_id"`
	Discarded       bool    `json:"discarded"`
	CompositionID   int64   `json:"composition_id"`
	RemainingVolume float64 `json:"remaining_volume"`
	Notes           *string `json:"notes,omitempty"`
	LatestProcessID int64   `json:"latest_process_id"`
}

// PrimerSet registers a named 16S primer template set and its template plates.
type PrimerSet struct {
	Base
	ExternalID       string  `json:"external_id"`
	TargetName       string  `json:"target_name"`
	TemplatePlateIDs []int64 `json:"template_plate_ids"`
}

// IndexPrimer is one index primer of a shotgun (i5, i7) combination.
type IndexPrimer struct {
	Name     string `json:"name"`
	Sequence string `json:"sequence"`
}

// IndexCombo pairs an i5 and an i7 index primer.
type IndexCombo struct {
	I5 IndexPrimer `json:"i5"`
	I7 IndexPrimer `json:"i7"`
}

// ShotgunPrimerSet holds the full (i5, i7) combination table for shotgun
// library preps together with the persistent round-robin cursor. The cursor
// is advanced only inside the transaction that read it.
type ShotgunPrimerSet struct {
	Base
	ExternalID        string       `json:"external_id"`
	CurrentComboIndex int          `json:"current_combo_index"`
	Combos            []IndexCombo `json:"combos"`
}

// MungeExternalID collapses runs of non-alphanumeric characters in a plate
// external id to single dots so derived content strings stay dot-delimited.
func MungeExternalID(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range name {
		alnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if alnum {
			if pending && b.Len() > 0 {
				b.WriteByte('.')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
