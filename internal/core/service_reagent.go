package core

import (
	"context"
	"time"

	"labcore/pkg/domain"
)

// ReagentCreationRequest carries the inputs of a reagent lot registration.
type ReagentCreationRequest struct {
	OperatorID    int64
	ExternalLotID string
	ReagentType   string
	Volume        float64
	Date          time.Time
	Notes         *string
}

// ReagentCreationResult reports the created process, tube, and composition.
type ReagentCreationResult struct {
	Process     domain.ReagentCreationProcess
	Tube        domain.Tube
	Composition domain.ReagentComposition
}

// CreateReagent registers a reagent lot in a fresh tube.
func (s *Service) CreateReagent(ctx context.Context, req ReagentCreationRequest) (ReagentCreationResult, Result, error) {
	var out ReagentCreationResult
	res, err := s.run(ctx, "create_reagent", func(tx Transaction) error {
		if req.ExternalLotID == "" {
			return domain.Invalidf("reagent lot id must not be empty")
		}
		comp, err := tx.CreateReagentComposition(domain.ReagentComposition{
			CompositionBase: domain.CompositionBase{TotalVolume: req.Volume},
			ExternalLotID:   req.ExternalLotID,
			ReagentType:     req.ReagentType,
		})
		if err != nil {
			return err
		}
		tube, err := tx.CreateTube(domain.Tube{
			ExternalID:      req.ExternalLotID,
			CompositionID:   comp.ID,
			RemainingVolume: req.Volume,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateReagentCreationProcess(domain.ReagentCreationProcess{
			ProcessBase:   domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			TubeID:        tube.ID,
			CompositionID: comp.ID,
		})
		if err != nil {
			return err
		}
		out = ReagentCreationResult{Process: process, Tube: tube, Composition: comp}
		return nil
	})
	return out, res, err
}
