package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"labcore/pkg/domain"
)

// PrimerTemplate describes one template primer on a template plate.
type PrimerTemplate struct {
	Barcode    string
	ExternalID string
}

// PrimerTemplatePlate describes one template plate of a primer set. Primers
// is a NumRows x NumColumns grid; nil cells create no well.
type PrimerTemplatePlate struct {
	ExternalID           string
	PlateConfigurationID int64
	Primers              [][]*PrimerTemplate
}

// PrimerSetSeedRequest registers a 16S primer set with its template plates.
type PrimerSetSeedRequest struct {
	ExternalID     string
	TargetName     string
	TemplatePlates []PrimerTemplatePlate
}

// RegisterPrimerSet seeds a primer set and its template plates. Template
// compositions are reference data, not the product of a lab process, so
// their process reference stays unset.
func (s *Service) RegisterPrimerSet(ctx context.Context, req PrimerSetSeedRequest) (domain.PrimerSet, Result, error) {
	var created domain.PrimerSet
	res, err := s.run(ctx, "register_primer_set", func(tx Transaction) error {
		if len(req.TemplatePlates) == 0 {
			return domain.Invalidf("primer set requires at least one template plate")
		}
		plateIDs := make([]int64, 0, len(req.TemplatePlates))
		for _, tpl := range req.TemplatePlates {
			config, ok := tx.Snapshot().FindPlateConfiguration(tpl.PlateConfigurationID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: tpl.PlateConfigurationID}
			}
			if len(tpl.Primers) != config.NumRows {
				return domain.Invalidf("template plate %q primer grid has %d rows, geometry wants %d", tpl.ExternalID, len(tpl.Primers), config.NumRows)
			}
			plate, err := tx.CreatePlate(domain.Plate{
				ExternalID:           tpl.ExternalID,
				PlateConfigurationID: config.ID,
			})
			if err != nil {
				return err
			}
			plateIDs = append(plateIDs, plate.ID)
			for r, rowPrimers := range tpl.Primers {
				if len(rowPrimers) != config.NumColumns {
					return domain.Invalidf("template plate %q row %d has %d columns, geometry wants %d", tpl.ExternalID, r+1, len(rowPrimers), config.NumColumns)
				}
				for c, primer := range rowPrimers {
					if primer == nil {
						continue
					}
					comp, err := tx.CreatePrimerSetComposition(domain.PrimerSetComposition{
						Barcode:    primer.Barcode,
						ExternalID: primer.ExternalID,
					})
					if err != nil {
						return err
					}
					if _, err := tx.CreateWell(domain.Well{
						PlateID:       plate.ID,
						Row:           r + 1,
						Column:        c + 1,
						CompositionID: comp.ID,
					}); err != nil {
						return err
					}
				}
			}
		}
		set, err := tx.CreatePrimerSet(domain.PrimerSet{
			ExternalID:       req.ExternalID,
			TargetName:       req.TargetName,
			TemplatePlateIDs: plateIDs,
		})
		if err != nil {
			return err
		}
		created = set
		return nil
	})
	return created, res, err
}

// RegisterShotgunPrimerSet seeds a shotgun index combo table with its cursor
// at zero.
func (s *Service) RegisterShotgunPrimerSet(ctx context.Context, externalID string, combos []domain.IndexCombo) (domain.ShotgunPrimerSet, Result, error) {
	var created domain.ShotgunPrimerSet
	res, err := s.run(ctx, "register_shotgun_primer_set", func(tx Transaction) error {
		var err error
		created, err = tx.CreateShotgunPrimerSet(domain.ShotgunPrimerSet{
			ExternalID: externalID,
			Combos:     combos,
		})
		return err
	})
	return created, res, err
}

// PrimerWorkingPlateRequest carries the inputs of a working plate creation
// run.
type PrimerWorkingPlateRequest struct {
	OperatorID     int64
	PrimerSetID    int64
	MasterSetOrder string
	Date           time.Time
	Notes          *string
}

// PrimerWorkingPlateResult reports the created process and working plates.
type PrimerWorkingPlateResult struct {
	Process domain.PrimerWorkingPlateCreationProcess
	Plates  []domain.Plate
}

// CreatePrimerWorkingPlates replicates every template plate of a primer set
// into a working plate of PrimerCompositions. Working plates are named
// "<template> <date>"; a name collision gets a random 4-digit suffix.
func (s *Service) CreatePrimerWorkingPlates(ctx context.Context, req PrimerWorkingPlateRequest) (PrimerWorkingPlateResult, Result, error) {
	var out PrimerWorkingPlateResult
	res, err := s.run(ctx, "create_primer_working_plates", func(tx Transaction) error {
		view := tx.Snapshot()
		set, ok := view.FindPrimerSet(req.PrimerSetID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPrimerSet, ID: req.PrimerSetID}
		}
		date := req.Date
		if date.IsZero() {
			date = time.Now().UTC()
		}

		type pendingPlate struct {
			plate      domain.Plate
			templateID int64
		}
		var pending []pendingPlate
		for _, templateID := range set.TemplatePlateIDs {
			template, ok := view.FindPlate(templateID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlate, ID: templateID}
			}
			name := fmt.Sprintf("%s %s", template.ExternalID, date.Format("2006-01-02"))
			for tx.Snapshot().PlateExternalIDExists(name) {
				name = fmt.Sprintf("%s %s %04d", template.ExternalID, date.Format("2006-01-02"), rand.IntN(10000))
			}
			plate, err := tx.CreatePlate(domain.Plate{
				ExternalID:           name,
				PlateConfigurationID: template.PlateConfigurationID,
			})
			if err != nil {
				return err
			}
			pending = append(pending, pendingPlate{plate: plate, templateID: templateID})
		}

		plateIDs := make([]int64, 0, len(pending))
		for _, p := range pending {
			plateIDs = append(plateIDs, p.plate.ID)
		}
		process, err := tx.CreatePrimerWorkingPlateCreationProcess(domain.PrimerWorkingPlateCreationProcess{
			ProcessBase:    domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			PrimerSetID:    set.ID,
			MasterSetOrder: req.MasterSetOrder,
			PlateIDs:       plateIDs,
		})
		if err != nil {
			return err
		}

		for _, p := range pending {
			for _, templateWell := range tx.Snapshot().WellsOnPlate(p.templateID) {
				templateComp, ok := tx.Snapshot().FindPrimerSetComposition(templateWell.CompositionID)
				if !ok {
					continue
				}
				comp, err := tx.CreatePrimerComposition(domain.PrimerComposition{
					CompositionBase:        domain.CompositionBase{ProcessID: process.ID},
					PrimerSetCompositionID: templateComp.ID,
				})
				if err != nil {
					return err
				}
				if _, err := tx.CreateWell(domain.Well{
					PlateID:         p.plate.ID,
					Row:             templateWell.Row,
					Column:          templateWell.Column,
					CompositionID:   comp.ID,
					LatestProcessID: process.ID,
				}); err != nil {
					return err
				}
			}
		}
		out = PrimerWorkingPlateResult{Process: process}
		for _, p := range pending {
			out.Plates = append(out.Plates, p.plate)
		}
		return nil
	})
	return out, res, err
}

// nextIndexCombos hands out the next n unused (i5, i7) combinations from the
// set, wrapping at most once, and advances the persistent cursor within the
// same transaction that read it.
func nextIndexCombos(tx Transaction, setID int64, n int) ([]domain.IndexCombo, error) {
	set, ok := tx.Snapshot().FindShotgunPrimerSet(setID)
	if !ok {
		return nil, domain.UnknownIDError{Entity: domain.EntityShotgunPrimerSet, ID: setID}
	}
	total := len(set.Combos)
	if n < 1 || n > total {
		return nil, domain.Invalidf("combo request %d out of range [1, %d]", n, total)
	}
	combos := make([]domain.IndexCombo, 0, n)
	for i := 0; i < n; i++ {
		combos = append(combos, set.Combos[(set.CurrentComboIndex+i)%total])
	}
	if _, err := tx.UpdateShotgunPrimerSet(setID, func(p *domain.ShotgunPrimerSet) error {
		p.CurrentComboIndex = (p.CurrentComboIndex + n) % total
		return nil
	}); err != nil {
		return nil, err
	}
	return combos, nil
}

// NextIndexCombos allocates a combo window in its own transaction.
func (s *Service) NextIndexCombos(ctx context.Context, setID int64, n int) ([]domain.IndexCombo, Result, error) {
	var combos []domain.IndexCombo
	res, err := s.run(ctx, "next_index_combos", func(tx Transaction) error {
		var err error
		combos, err = nextIndexCombos(tx, setID, n)
		return err
	})
	return combos, res, err
}
