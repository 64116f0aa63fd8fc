package memory

import (
	"sort"

	"labcore/pkg/domain"
)

// txView is a read-only adapter over a state snapshot.
type txView struct {
	state *state
}

var _ domain.TransactionView = txView{}

func (v txView) FindUser(id int64) (domain.User, bool) {
	u, ok := v.state.users[id]
	return u, ok
}

func (v txView) FindEquipment(id int64) (domain.Equipment, bool) {
	e, ok := v.state.equipment[id]
	return e, ok
}

func (v txView) FindStudy(id int64) (domain.Study, bool) {
	st, ok := v.state.studies[id]
	return st, ok
}

func (v txView) ListStudies() []domain.Study {
	return sortedByID(v.state.studies)
}

func (v txView) FindPlateConfiguration(id int64) (domain.PlateConfiguration, bool) {
	pc, ok := v.state.plateConfigs[id]
	return pc, ok
}

func (v txView) FindPlate(id int64) (domain.Plate, bool) {
	p, ok := v.state.plates[id]
	return p, ok
}

func (v txView) ListPlates() []domain.Plate {
	return sortedByID(v.state.plates)
}

func (v txView) PlateExternalIDExists(externalID string) bool {
	for _, p := range v.state.plates {
		if p.ExternalID == externalID {
			return true
		}
	}
	return false
}

func (v txView) FindWell(id int64) (domain.Well, bool) {
	w, ok := v.state.wells[id]
	return w, ok
}

func (v txView) ListWells() []domain.Well {
	return sortedByID(v.state.wells)
}

// WellsOnPlate returns the plate's wells in row-major order.
func (v txView) WellsOnPlate(plateID int64) []domain.Well {
	var wells []domain.Well
	for _, w := range v.state.wells {
		if w.PlateID == plateID {
			wells = append(wells, w)
		}
	}
	sort.Slice(wells, func(i, j int) bool {
		if wells[i].Row != wells[j].Row {
			return wells[i].Row < wells[j].Row
		}
		return wells[i].Column < wells[j].Column
	})
	return wells
}

func (v txView) WellAt(plateID int64, row, column int) (domain.Well, bool) {
	for _, w := range v.state.wells {
		if w.PlateID == plateID && w.Row == row && w.Column == column {
			return w, true
		}
	}
	return domain.Well{}, false
}

func (v txView) FindTube(id int64) (domain.Tube, bool) {
	t, ok := v.state.tubes[id]
	return t, ok
}

func (v txView) ListTubes() []domain.Tube {
	return sortedByID(v.state.tubes)
}

// CompositionByID dispatches on the stored type tag to the variant map. An
// id present in the tag map but absent from its variant map indicates store
// corruption and is reported as an unknown id.
func (v txView) CompositionByID(id int64) (domain.Composition, error) {
	tag, ok := v.state.compositionTypes[id]
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityComposition, ID: id}
	}
	switch tag {
	case domain.CompositionSample:
		if c, ok := v.state.samples[id]; ok {
			return c, nil
		}
	case domain.CompositionReagent:
		if c, ok := v.state.reagents[id]; ok {
			return c, nil
		}
	case domain.CompositionPrimerSet:
		if c, ok := v.state.primerSetComps[id]; ok {
			return c, nil
		}
	case domain.CompositionPrimer:
		if c, ok := v.state.primers[id]; ok {
			return c, nil
		}
	case domain.CompositionGDNA:
		if c, ok := v.state.gdna[id]; ok {
			return c, nil
		}
	case domain.CompositionCompressedGDNA:
		if c, ok := v.state.compressedGDNA[id]; ok {
			return c, nil
		}
	case domain.CompositionNormalizedGDNA:
		if c, ok := v.state.normalizedGDNA[id]; ok {
			return c, nil
		}
	case domain.CompositionLibraryPrep16S:
		if c, ok := v.state.libPrep16S[id]; ok {
			return c, nil
		}
	case domain.CompositionLibraryPrepShotgun:
		if c, ok := v.state.libPrepShotgun[id]; ok {
			return c, nil
		}
	case domain.CompositionPool:
		if c, ok := v.state.pools[id]; ok {
			return clonePool(c), nil
		}
	default:
		return nil, domain.UnknownCompositionTypeError{Tag: tag}
	}
	return nil, domain.UnknownIDError{Entity: domain.EntityComposition, ID: id}
}

func (v txView) ListCompositions() []domain.Composition {
	ids := make([]int64, 0, len(v.state.compositionTypes))
	for id := range v.state.compositionTypes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Composition, 0, len(ids))
	for _, id := range ids {
		comp, err := v.CompositionByID(id)
		if err != nil {
			continue
		}
		out = append(out, comp)
	}
	return out
}

func (v txView) FindSampleComposition(id int64) (domain.SampleComposition, bool) {
	c, ok := v.state.samples[id]
	return c, ok
}

func (v txView) FindReagentComposition(id int64) (domain.ReagentComposition, bool) {
	c, ok := v.state.reagents[id]
	return c, ok
}

func (v txView) FindPrimerSetComposition(id int64) (domain.PrimerSetComposition, bool) {
	c, ok := v.state.primerSetComps[id]
	return c, ok
}

func (v txView) FindPrimerComposition(id int64) (domain.PrimerComposition, bool) {
	c, ok := v.state.primers[id]
	return c, ok
}

func (v txView) FindGDNAComposition(id int64) (domain.GDNAComposition, bool) {
	c, ok := v.state.gdna[id]
	return c, ok
}

func (v txView) FindCompressedGDNAComposition(id int64) (domain.CompressedGDNAComposition, bool) {
	c, ok := v.state.compressedGDNA[id]
	return c, ok
}

func (v txView) FindNormalizedGDNAComposition(id int64) (domain.NormalizedGDNAComposition, bool) {
	c, ok := v.state.normalizedGDNA[id]
	return c, ok
}

func (v txView) FindPoolComposition(id int64) (domain.PoolComposition, bool) {
	c, ok := v.state.pools[id]
	if !ok {
		return domain.PoolComposition{}, false
	}
	return clonePool(c), true
}

// ProcessByID dispatches on the stored process type tag.
func (v txView) ProcessByID(id int64) (domain.Process, error) {
	tag, ok := v.state.processTypes[id]
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityProcess, ID: id}
	}
	switch tag {
	case domain.ProcessSamplePlating:
		if p, ok := v.state.platings[id]; ok {
			return p, nil
		}
	case domain.ProcessReagentCreation:
		if p, ok := v.state.reagentCreates[id]; ok {
			return p, nil
		}
	case domain.ProcessPrimerWorkingPlateCreation:
		if p, ok := v.state.primerPlatings[id]; ok {
			return clonePrimerPlating(p), nil
		}
	case domain.ProcessGDNAExtraction:
		if p, ok := v.state.extractions[id]; ok {
			return p, nil
		}
	case domain.ProcessGDNAPlateCompression:
		if p, ok := v.state.compressions[id]; ok {
			return cloneCompression(p), nil
		}
	case domain.ProcessLibraryPrep16S:
		if p, ok := v.state.libPreps16S[id]; ok {
			return p, nil
		}
	case domain.ProcessNormalization:
		if p, ok := v.state.normalizations[id]; ok {
			return p, nil
		}
	case domain.ProcessLibraryPrepShotgun:
		if p, ok := v.state.libPrepsShotgun[id]; ok {
			return p, nil
		}
	case domain.ProcessQuantification:
		if p, ok := v.state.quantifications[id]; ok {
			return cloneQuantification(p), nil
		}
	case domain.ProcessPooling:
		if p, ok := v.state.poolings[id]; ok {
			return clonePooling(p), nil
		}
	case domain.ProcessSequencing:
		if p, ok := v.state.sequencings[id]; ok {
			return cloneSequencing(p), nil
		}
	default:
		return nil, domain.UnknownProcessTypeError{Tag: tag}
	}
	return nil, domain.UnknownIDError{Entity: domain.EntityProcess, ID: id}
}

func (v txView) FindQuantificationProcess(id int64) (domain.QuantificationProcess, bool) {
	p, ok := v.state.quantifications[id]
	if !ok {
		return domain.QuantificationProcess{}, false
	}
	return cloneQuantification(p), true
}

func (v txView) FindPrimerSet(id int64) (domain.PrimerSet, bool) {
	p, ok := v.state.primerSets[id]
	if !ok {
		return domain.PrimerSet{}, false
	}
	return clonePrimerSet(p), true
}

func (v txView) FindShotgunPrimerSet(id int64) (domain.ShotgunPrimerSet, bool) {
	p, ok := v.state.shotgunPrimerSets[id]
	if !ok {
		return domain.ShotgunPrimerSet{}, false
	}
	return cloneShotgunPrimerSet(p), true
}

func (v txView) ListShotgunPrimerSets() []domain.ShotgunPrimerSet {
	sets := sortedByID(v.state.shotgunPrimerSets)
	for i := range sets {
		sets[i] = cloneShotgunPrimerSet(sets[i])
	}
	return sets
}
