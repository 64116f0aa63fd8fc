package core

import (
	"context"
	"encoding/json"
	"time"

	"labcore/internal/instrument"
	"labcore/pkg/domain"
	"labcore/pkg/normalize"
)

// QuantificationRequest carries the inputs of a quantification run. Exactly
// one of (PlateID, Concentrations) or Readings must be provided: plate mode
// reads one concentration per well from a grid matching the plate geometry,
// manual mode takes explicit composition readings (pool-of-pools case).
type QuantificationRequest struct {
	OperatorID     int64
	PlateID        *int64
	Concentrations [][]float64
	Readings       []domain.ConcentrationReading
	Date           time.Time
	Notes          *string
}

// CreateQuantification stores raw concentration readings for later
// normalization or pooling.
func (s *Service) CreateQuantification(ctx context.Context, req QuantificationRequest) (domain.QuantificationProcess, Result, error) {
	var created domain.QuantificationProcess
	res, err := s.run(ctx, "create_quantification", func(tx Transaction) error {
		view := tx.Snapshot()
		readings := req.Readings
		if req.PlateID != nil {
			plate, ok := view.FindPlate(*req.PlateID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlate, ID: *req.PlateID}
			}
			config, ok := view.FindPlateConfiguration(plate.PlateConfigurationID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: plate.PlateConfigurationID}
			}
			if len(req.Concentrations) != config.NumRows {
				return domain.Invalidf("concentration grid has %d rows, plate geometry wants %d", len(req.Concentrations), config.NumRows)
			}
			for r, row := range req.Concentrations {
				if len(row) != config.NumColumns {
					return domain.Invalidf("concentration grid row %d has %d columns, plate geometry wants %d", r+1, len(row), config.NumColumns)
				}
			}
			readings = nil
			for _, w := range view.WellsOnPlate(plate.ID) {
				readings = append(readings, domain.ConcentrationReading{
					CompositionID:    w.CompositionID,
					RawConcentration: req.Concentrations[w.Row-1][w.Column-1],
				})
			}
		}
		if len(readings) == 0 {
			return domain.Invalidf("quantification requires at least one concentration reading")
		}
		var err error
		created, err = tx.CreateQuantificationProcess(domain.QuantificationProcess{
			ProcessBase: domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			PlateID:     req.PlateID,
			Readings:    readings,
		})
		return err
	})
	return created, res, err
}

// ComputeConcentrations derives a nanomolar library concentration from every
// raw ng/uL reading of a quantification process, given the mean fragment
// size in base pairs, and persists it next to the raw value.
func (s *Service) ComputeConcentrations(ctx context.Context, quantProcessID int64, sizeBP int) (domain.QuantificationProcess, Result, error) {
	var updated domain.QuantificationProcess
	res, err := s.run(ctx, "compute_concentrations", func(tx Transaction) error {
		if sizeBP <= 0 {
			return domain.Invalidf("fragment size must be positive, got %d", sizeBP)
		}
		var err error
		updated, err = tx.UpdateQuantificationProcess(quantProcessID, func(p *domain.QuantificationProcess) error {
			for i := range p.Readings {
				nM := normalize.LibraryConcentration(p.Readings[i].RawConcentration, sizeBP)
				p.Readings[i].Concentration = &nM
			}
			return nil
		})
		return err
	})
	return updated, res, err
}

// PoolComponentInput is one candidate component of a pooling run.
type PoolComponentInput struct {
	CompositionID      int64
	InputVolume        float64
	PercentageOfOutput float64
}

// PoolingRequest carries the inputs of a pooling run. Components with an
// input volume below 0.001 nL are dropped, the wet-lab convention for
// skipping negligible transfers. FunctionName/FunctionParameters record how
// the volumes were computed and are never reinterpreted.
type PoolingRequest struct {
	OperatorID              int64
	QuantificationProcessID int64
	PoolName                string
	TotalVolume             float64
	Components              []PoolComponentInput
	FunctionName            string
	FunctionParameters      json.RawMessage
	RobotID                 *int64
	Date                    time.Time
	Notes                   *string
}

// PoolingResult reports the created process, destination tube, and pool.
type PoolingResult struct {
	Process domain.PoolingProcess
	Tube    domain.Tube
	Pool    domain.PoolComposition
}

// minPoolComponentVolume is the threshold below which a component transfer
// is considered negligible and skipped.
const minPoolComponentVolume = 0.001

// CreatePooling combines quantified compositions into a pool in a fresh
// destination tube.
func (s *Service) CreatePooling(ctx context.Context, req PoolingRequest) (PoolingResult, Result, error) {
	var out PoolingResult
	res, err := s.run(ctx, "create_pooling", func(tx Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindQuantificationProcess(req.QuantificationProcessID); !ok {
			return domain.UnknownIDError{Entity: domain.EntityProcess, ID: req.QuantificationProcessID}
		}
		var components []domain.PoolComponent
		for _, c := range req.Components {
			if c.InputVolume < minPoolComponentVolume {
				continue
			}
			components = append(components, domain.PoolComponent{
				CompositionID:      c.CompositionID,
				InputVolume:        c.InputVolume,
				PercentageOfOutput: c.PercentageOfOutput,
			})
		}
		if len(components) == 0 {
			return domain.Invalidf("pooling requires at least one component above %g nL", minPoolComponentVolume)
		}
		pool, err := tx.CreatePoolComposition(domain.PoolComposition{
			CompositionBase: domain.CompositionBase{TotalVolume: req.TotalVolume},
			Components:      components,
		})
		if err != nil {
			return err
		}
		tube, err := tx.CreateTube(domain.Tube{
			ExternalID:      req.PoolName,
			CompositionID:   pool.ID,
			RemainingVolume: req.TotalVolume,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreatePoolingProcess(domain.PoolingProcess{
			ProcessBase:             domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			QuantificationProcessID: req.QuantificationProcessID,
			RobotID:                 req.RobotID,
			FunctionName:            req.FunctionName,
			FunctionParameters:      req.FunctionParameters,
			DestinationTubeID:       tube.ID,
			PoolCompositionID:       pool.ID,
		})
		if err != nil {
			return err
		}
		out = PoolingResult{Process: process, Tube: tube, Pool: pool}
		return nil
	})
	return out, res, err
}

// SequencingRequest carries the inputs of a sequencing submission. Lane
// assignment is the 1-based order of PoolIDs.
type SequencingRequest struct {
	OperatorID              int64
	RunName                 string
	ExperimentName          string
	SequencerID             int64
	FwdCycles               int
	RevCycles               int
	Assay                   string
	PrincipalInvestigatorID int64
	ContactIDs              []int64
	PoolIDs                 []int64
	Date                    time.Time
	Notes                   *string
}

// CreateSequencing submits pools to a sequencer, checking cycle counts and
// the sequencer model's lane capacity.
func (s *Service) CreateSequencing(ctx context.Context, req SequencingRequest) (domain.SequencingProcess, Result, error) {
	var created domain.SequencingProcess
	res, err := s.run(ctx, "create_sequencing", func(tx Transaction) error {
		view := tx.Snapshot()
		if req.FwdCycles <= 0 || req.RevCycles <= 0 {
			return domain.Invalidf("cycle counts must be positive: fwd=%d rev=%d", req.FwdCycles, req.RevCycles)
		}
		sequencer, ok := view.FindEquipment(req.SequencerID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityEquipment, ID: req.SequencerID}
		}
		lanes := instrument.LaneCount(sequencer.EquipmentType)
		if len(req.PoolIDs) == 0 {
			return domain.Invalidf("sequencing requires at least one pool")
		}
		if len(req.PoolIDs) > lanes {
			return domain.Invalidf("%d pools exceed %s lane capacity of %d", len(req.PoolIDs), sequencer.EquipmentType, lanes)
		}
		for _, poolID := range req.PoolIDs {
			if _, ok := view.FindPoolComposition(poolID); !ok {
				return domain.UnknownIDError{Entity: domain.EntityComposition, ID: poolID}
			}
		}
		var err error
		created, err = tx.CreateSequencingProcess(domain.SequencingProcess{
			ProcessBase:             domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			RunName:                 req.RunName,
			ExperimentName:          req.ExperimentName,
			SequencerID:             req.SequencerID,
			FwdCycles:               req.FwdCycles,
			RevCycles:               req.RevCycles,
			Assay:                   req.Assay,
			PrincipalInvestigatorID: req.PrincipalInvestigatorID,
			ContactIDs:              req.ContactIDs,
			PoolIDs:                 req.PoolIDs,
		})
		return err
	})
	return created, res, err
}
