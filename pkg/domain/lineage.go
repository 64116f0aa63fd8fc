package domain

// OriginSample walks a composition's derivation chain upstream to the
// originating sample composition. The second return is false for
// compositions with no sample lineage (reagents, primers, pools).
func OriginSample(view TransactionView, compositionID int64) (SampleComposition, bool, error) {
	comp, err := view.CompositionByID(compositionID)
	if err != nil {
		return SampleComposition{}, false, err
	}
	switch c := comp.(type) {
	case SampleComposition:
		return c, true, nil
	case GDNAComposition:
		return OriginSample(view, c.SampleCompositionID)
	case CompressedGDNAComposition:
		return OriginSample(view, c.GDNACompositionID)
	case NormalizedGDNAComposition:
		return OriginSample(view, c.CompressedGDNACompositionID)
	case LibraryPrep16SComposition:
		return OriginSample(view, c.GDNACompositionID)
	case LibraryPrepShotgunComposition:
		return OriginSample(view, c.NormalizedGDNACompositionID)
	default:
		return SampleComposition{}, false, nil
	}
}

// StudiesForComposition returns the set of study ids represented in a
// composition's full upstream lineage. Pools contribute the union over
// their components; controls and reagents contribute nothing.
func StudiesForComposition(view TransactionView, reg SampleRegistry, compositionID int64) (map[int64]struct{}, error) {
	studies := make(map[int64]struct{})
	if err := collectStudies(view, reg, compositionID, studies); err != nil {
		return nil, err
	}
	return studies, nil
}

func collectStudies(view TransactionView, reg SampleRegistry, compositionID int64, acc map[int64]struct{}) error {
	comp, err := view.CompositionByID(compositionID)
	if err != nil {
		return err
	}
	if pool, ok := comp.(PoolComposition); ok {
		for _, component := range pool.Components {
			if err := collectStudies(view, reg, component.CompositionID, acc); err != nil {
				return err
			}
		}
		return nil
	}
	sample, ok, err := OriginSample(view, compositionID)
	if err != nil || !ok {
		return err
	}
	if sample.SampleID == nil {
		return nil
	}
	if study, ok := reg.StudyForSample(*sample.SampleID); ok {
		acc[study] = struct{}{}
	}
	return nil
}

// StudyForComposition resolves the single study of a linear derivation
// chain. The second return is false when the composition has no sample
// lineage or, for pools, when components span zero or multiple studies.
func StudyForComposition(view TransactionView, reg SampleRegistry, compositionID int64) (int64, bool, error) {
	studies, err := StudiesForComposition(view, reg, compositionID)
	if err != nil {
		return 0, false, err
	}
	if len(studies) != 1 {
		return 0, false, nil
	}
	for id := range studies {
		return id, true, nil
	}
	return 0, false, nil
}
