package core

import (
	"context"
	"fmt"

	"labcore/pkg/domain"
)

// DerivationIntegrityRule blocks derived compositions whose upstream
// composition references do not resolve.
type DerivationIntegrityRule struct{}

func (DerivationIntegrityRule) Name() string { return "derivation_integrity" }

func (DerivationIntegrityRule) Evaluate(ctx context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntityComposition || change.Action != domain.ActionCreate {
			continue
		}
		comp, ok := change.After.(domain.Composition)
		if !ok {
			continue
		}
		for _, upstream := range upstreamCompositionIDs(comp) {
			if _, err := view.CompositionByID(upstream); err != nil {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "derivation_integrity",
					Severity: domain.SeverityBlock,
					Message: fmt.Sprintf("composition %d derives from unresolvable composition %d",
						comp.Common().ID, upstream),
					Entity:   domain.EntityComposition,
					EntityID: comp.Common().ID,
				})
			}
		}
	}
	return res, nil
}

func upstreamCompositionIDs(comp domain.Composition) []int64 {
	switch c := comp.(type) {
	case domain.PrimerComposition:
		return []int64{c.PrimerSetCompositionID}
	case domain.GDNAComposition:
		return []int64{c.SampleCompositionID}
	case domain.CompressedGDNAComposition:
		return []int64{c.GDNACompositionID}
	case domain.NormalizedGDNAComposition:
		return []int64{c.CompressedGDNACompositionID}
	case domain.LibraryPrep16SComposition:
		return []int64{c.GDNACompositionID, c.PrimerCompositionID}
	case domain.LibraryPrepShotgunComposition:
		return []int64{c.NormalizedGDNACompositionID, c.I5PrimerCompositionID, c.I7PrimerCompositionID}
	case domain.PoolComposition:
		ids := make([]int64, 0, len(c.Components))
		for _, component := range c.Components {
			ids = append(ids, component.CompositionID)
		}
		return ids
	default:
		return nil
	}
}
