package memory

import (
	"encoding/json"
	"fmt"

	"labcore/pkg/domain"
)

// Bucket names used by durable backends to persist whole-state snapshots.
const (
	bucketSequences         = "sequences"
	bucketUsers             = "users"
	bucketEquipment         = "equipment"
	bucketStudies           = "studies"
	bucketPlateConfigs      = "plate_configurations"
	bucketPlates            = "plates"
	bucketContainerKinds    = "container_kinds"
	bucketWells             = "wells"
	bucketTubes             = "tubes"
	bucketCompositionTypes  = "composition_types"
	bucketSamples           = "sample_compositions"
	bucketReagents          = "reagent_compositions"
	bucketPrimerSetComps    = "primer_set_compositions"
	bucketPrimers           = "primer_compositions"
	bucketGDNA              = "gdna_compositions"
	bucketCompressedGDNA    = "compressed_gdna_compositions"
	bucketNormalizedGDNA    = "normalized_gdna_compositions"
	bucketLibPrep16S        = "library_prep_16s_compositions"
	bucketLibPrepShotgun    = "library_prep_shotgun_compositions"
	bucketPools             = "pool_compositions"
	bucketProcessTypes      = "process_types"
	bucketPlatings          = "sample_plating_processes"
	bucketReagentCreates    = "reagent_creation_processes"
	bucketPrimerPlatings    = "primer_working_plate_creation_processes"
	bucketExtractions       = "gdna_extraction_processes"
	bucketCompressions      = "gdna_plate_compression_processes"
	bucketLibPreps16S       = "library_prep_16s_processes"
	bucketNormalizations    = "normalization_processes"
	bucketLibPrepsShotgun   = "library_prep_shotgun_processes"
	bucketQuantifications   = "quantification_processes"
	bucketPoolings          = "pooling_processes"
	bucketSequencings       = "sequencing_processes"
	bucketPrimerSets        = "primer_sets"
	bucketShotgunPrimerSets = "shotgun_primer_sets"
)

// Buckets lists every snapshot bucket in a stable order.
func Buckets() []string {
	return []string{
		bucketSequences, bucketUsers, bucketEquipment, bucketStudies,
		bucketPlateConfigs, bucketPlates, bucketContainerKinds, bucketWells,
		bucketTubes, bucketCompositionTypes, bucketSamples, bucketReagents,
		bucketPrimerSetComps, bucketPrimers, bucketGDNA, bucketCompressedGDNA,
		bucketNormalizedGDNA, bucketLibPrep16S, bucketLibPrepShotgun,
		bucketPools, bucketProcessTypes, bucketPlatings, bucketReagentCreates,
		bucketPrimerPlatings, bucketExtractions, bucketCompressions,
		bucketLibPreps16S, bucketNormalizations, bucketLibPrepsShotgun,
		bucketQuantifications, bucketPoolings, bucketSequencings,
		bucketPrimerSets, bucketShotgunPrimerSets,
	}
}

func marshalBucket[T any](out map[string]json.RawMessage, name string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal bucket %s: %w", name, err)
	}
	out[name] = payload
	return nil
}

func unmarshalBucket[T any](in map[string]json.RawMessage, name string, into *T) error {
	payload, ok := in[name]
	if !ok || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("unmarshal bucket %s: %w", name, err)
	}
	return nil
}

// ExportState serializes the committed state into named JSON buckets for a
// durable backend to persist.
func (s *Store) ExportState() (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(Buckets()))
	st := &s.state
	steps := []func() error{
		func() error { return marshalBucket(out, bucketSequences, st.seq) },
		func() error { return marshalBucket(out, bucketUsers, st.users) },
		func() error { return marshalBucket(out, bucketEquipment, st.equipment) },
		func() error { return marshalBucket(out, bucketStudies, st.studies) },
		func() error { return marshalBucket(out, bucketPlateConfigs, st.plateConfigs) },
		func() error { return marshalBucket(out, bucketPlates, st.plates) },
		func() error { return marshalBucket(out, bucketContainerKinds, st.containerKinds) },
		func() error { return marshalBucket(out, bucketWells, st.wells) },
		func() error { return marshalBucket(out, bucketTubes, st.tubes) },
		func() error { return marshalBucket(out, bucketCompositionTypes, st.compositionTypes) },
		func() error { return marshalBucket(out, bucketSamples, st.samples) },
		func() error { return marshalBucket(out, bucketReagents, st.reagents) },
		func() error { return marshalBucket(out, bucketPrimerSetComps, st.primerSetComps) },
		func() error { return marshalBucket(out, bucketPrimers, st.primers) },
		func() error { return marshalBucket(out, bucketGDNA, st.gdna) },
		func() error { return marshalBucket(out, bucketCompressedGDNA, st.compressedGDNA) },
		func() error { return marshalBucket(out, bucketNormalizedGDNA, st.normalizedGDNA) },
		func() error { return marshalBucket(out, bucketLibPrep16S, st.libPrep16S) },
		func() error { return marshalBucket(out, bucketLibPrepShotgun, st.libPrepShotgun) },
		func() error { return marshalBucket(out, bucketPools, st.pools) },
		func() error { return marshalBucket(out, bucketProcessTypes, st.processTypes) },
		func() error { return marshalBucket(out, bucketPlatings, st.platings) },
		func() error { return marshalBucket(out, bucketReagentCreates, st.reagentCreates) },
		func() error { return marshalBucket(out, bucketPrimerPlatings, st.primerPlatings) },
		func() error { return marshalBucket(out, bucketExtractions, st.extractions) },
		func() error { return marshalBucket(out, bucketCompressions, st.compressions) },
		func() error { return marshalBucket(out, bucketLibPreps16S, st.libPreps16S) },
		func() error { return marshalBucket(out, bucketNormalizations, st.normalizations) },
		func() error { return marshalBucket(out, bucketLibPrepsShotgun, st.libPrepsShotgun) },
		func() error { return marshalBucket(out, bucketQuantifications, st.quantifications) },
		func() error { return marshalBucket(out, bucketPoolings, st.poolings) },
		func() error { return marshalBucket(out, bucketSequencings, st.sequencings) },
		func() error { return marshalBucket(out, bucketPrimerSets, st.primerSets) },
		func() error { return marshalBucket(out, bucketShotgunPrimerSets, st.shotgunPrimerSets) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ImportState replaces the committed state with the decoded buckets. Missing
// buckets leave their maps empty, so a fresh database loads cleanly.
func (s *Store) ImportState(buckets map[string]json.RawMessage) error {
	st := newState()
	steps := []func() error{
		func() error { return unmarshalBucket(buckets, bucketSequences, &st.seq) },
		func() error { return unmarshalBucket(buckets, bucketUsers, &st.users) },
		func() error { return unmarshalBucket(buckets, bucketEquipment, &st.equipment) },
		func() error { return unmarshalBucket(buckets, bucketStudies, &st.studies) },
		func() error { return unmarshalBucket(buckets, bucketPlateConfigs, &st.plateConfigs) },
		func() error { return unmarshalBucket(buckets, bucketPlates, &st.plates) },
		func() error { return unmarshalBucket(buckets, bucketContainerKinds, &st.containerKinds) },
		func() error { return unmarshalBucket(buckets, bucketWells, &st.wells) },
		func() error { return unmarshalBucket(buckets, bucketTubes, &st.tubes) },
		func() error { return unmarshalBucket(buckets, bucketCompositionTypes, &st.compositionTypes) },
		func() error { return unmarshalBucket(buckets, bucketSamples, &st.samples) },
		func() error { return unmarshalBucket(buckets, bucketReagents, &st.reagents) },
		func() error { return unmarshalBucket(buckets, bucketPrimerSetComps, &st.primerSetComps) },
		func() error { return unmarshalBucket(buckets, bucketPrimers, &st.primers) },
		func() error { return unmarshalBucket(buckets, bucketGDNA, &st.gdna) },
		func() error { return unmarshalBucket(buckets, bucketCompressedGDNA, &st.compressedGDNA) },
		func() error { return unmarshalBucket(buckets, bucketNormalizedGDNA, &st.normalizedGDNA) },
		func() error { return unmarshalBucket(buckets, bucketLibPrep16S, &st.libPrep16S) },
		func() error { return unmarshalBucket(buckets, bucketLibPrepShotgun, &st.libPrepShotgun) },
		func() error { return unmarshalBucket(buckets, bucketPools, &st.pools) },
		func() error { return unmarshalBucket(buckets, bucketProcessTypes, &st.processTypes) },
		func() error { return unmarshalBucket(buckets, bucketPlatings, &st.platings) },
		func() error { return unmarshalBucket(buckets, bucketReagentCreates, &st.reagentCreates) },
		func() error { return unmarshalBucket(buckets, bucketPrimerPlatings, &st.primerPlatings) },
		func() error { return unmarshalBucket(buckets, bucketExtractions, &st.extractions) },
		func() error { return unmarshalBucket(buckets, bucketCompressions, &st.compressions) },
		func() error { return unmarshalBucket(buckets, bucketLibPreps16S, &st.libPreps16S) },
		func() error { return unmarshalBucket(buckets, bucketNormalizations, &st.normalizations) },
		func() error { return unmarshalBucket(buckets, bucketLibPrepsShotgun, &st.libPrepsShotgun) },
		func() error { return unmarshalBucket(buckets, bucketQuantifications, &st.quantifications) },
		func() error { return unmarshalBucket(buckets, bucketPoolings, &st.poolings) },
		func() error { return unmarshalBucket(buckets, bucketSequencings, &st.sequencings) },
		func() error { return unmarshalBucket(buckets, bucketPrimerSets, &st.primerSets) },
		func() error { return unmarshalBucket(buckets, bucketShotgunPrimerSets, &st.shotgunPrimerSets) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return nil
}

// Engine exposes the rules engine so callers can register rules after
// construction.
func (s *Store) Engine() *domain.RulesEngine { return s.engine }
