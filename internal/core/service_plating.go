package core

import (
	"context"
	"fmt"
	"time"

	"labcore/pkg/domain"
	"labcore/pkg/layout"
)

// SamplePlatingRequest carries the inputs of a sample plating run.
type SamplePlatingRequest struct {
	OperatorID           int64
	PlateConfigurationID int64
	PlateExternalID      string
	StartingVolume       float64
	Date                 time.Time
	Notes                *string
}

// SamplePlatingResult reports the created process and plate.
type SamplePlatingResult struct {
	Process domain.SamplePlatingProcess
	Plate   domain.Plate
}

// CreateSamplePlating creates a plate where every grid cell starts as a
// blank sample composition in its own well.
func (s *Service) CreateSamplePlating(ctx context.Context, req SamplePlatingRequest) (SamplePlatingResult, Result, error) {
	var out SamplePlatingResult
	res, err := s.run(ctx, "create_sample_plating", func(tx Transaction) error {
		view := tx.Snapshot()
		config, ok := view.FindPlateConfiguration(req.PlateConfigurationID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlateConfiguration, ID: req.PlateConfigurationID}
		}
		plate, err := tx.CreatePlate(domain.Plate{
			ExternalID:           req.PlateExternalID,
			PlateConfigurationID: config.ID,
		})
		if err != nil {
			return err
		}
		process, err := tx.CreateSamplePlatingProcess(domain.SamplePlatingProcess{
			ProcessBase: domain.ProcessBase{Date: req.Date, OperatorID: req.OperatorID, Notes: req.Notes},
			PlateID:     plate.ID,
		})
		if err != nil {
			return err
		}
		munged := domain.MungeExternalID(plate.ExternalID)
		for row := 1; row <= config.NumRows; row++ {
			for col := 1; col <= config.NumColumns; col++ {
				content := fmt.Sprintf("%s.%s.%s", domain.SampleTypeBlank, munged, layout.WellName(row, col))
				comp, err := tx.CreateSampleComposition(domain.SampleComposition{
					CompositionBase: domain.CompositionBase{
						TotalVolume: req.StartingVolume,
						ProcessID:   process.ID,
					},
					Content:               content,
					SampleCompositionType: domain.SampleTypeBlank,
				})
				if err != nil {
					return err
				}
				if _, err := tx.CreateWell(domain.Well{
					PlateID:         plate.ID,
					Row:             row,
					Column:          col,
					CompositionID:   comp.ID,
					RemainingVolume: req.StartingVolume,
					LatestProcessID: process.ID,
				}); err != nil {
					return err
				}
			}
		}
		out = SamplePlatingResult{Process: process, Plate: plate}
		return nil
	})
	return out, res, err
}

// UpdatePlatedSample reclassifies the content of one plated well. The
// returned string is the final stored content; ok is false when the content
// resolved to neither a known control nor a registered sample id.
//
// Duplicate handling: when the requested sample id already appears in
// another well on the same plate, this well's content gets the
// ".<plate>.<well>" suffix. When the previously assigned sample id is left
// behind in exactly one remaining well, that well's content reverts to the
// bare sample id; with two or more remaining holders nothing is touched.
func (s *Service) UpdatePlatedSample(ctx context.Context, plateID int64, row, column int, content string) (string, bool, Result, error) {
	var (
		finalContent string
		recognized   bool
	)
	res, err := s.run(ctx, "update_plated_sample", func(tx Transaction) error {
		view := tx.Snapshot()
		plate, ok := view.FindPlate(plateID)
		if !ok {
			return domain.UnknownIDError{Entity: domain.EntityPlate, ID: plateID}
		}
		well, ok := view.WellAt(plateID, row, column)
		if !ok {
			return domain.Invalidf("plate %d has no well at (%d, %d)", plateID, row, column)
		}
		sample, ok := view.FindSampleComposition(well.CompositionID)
		if !ok {
			return domain.Invalidf("well %d does not hold a sample composition", well.ID)
		}

		munged := domain.MungeExternalID(plate.ExternalID)
		wellLabel := layout.WellName(row, column)
		oldSampleID := sample.SampleID

		var newSampleID *string
		var newType, newContent string
		switch {
		case domain.IsControlSampleType(content):
			newType = content
			newContent = fmt.Sprintf("%s.%s.%s", content, munged, wellLabel)
			recognized = true
		case s.registry != nil && s.registry.SampleExists(content):
			newType = domain.SampleTypeExperimental
			id := content
			newSampleID = &id
			if len(s.wellsHoldingSample(view, plateID, content, well.ID)) > 0 {
				newContent = fmt.Sprintf("%s.%s.%s", content, munged, wellLabel)
			} else {
				newContent = content
			}
			recognized = true
		default:
			newType = domain.SampleTypeExperimental
			newContent = content
			recognized = false
		}

		if _, err := tx.UpdateSampleComposition(sample.ID, func(c *domain.SampleComposition) error {
			c.SampleCompositionType = newType
			c.SampleID = newSampleID
			c.Content = newContent
			return nil
		}); err != nil {
			return err
		}

		// Suffix reversion for the sample id this well is moving away from.
		if oldSampleID != nil && (newSampleID == nil || *newSampleID != *oldSampleID) {
			holders := s.wellsHoldingSample(tx.Snapshot(), plateID, *oldSampleID, well.ID)
			if len(holders) == 1 {
				if _, err := tx.UpdateSampleComposition(holders[0].CompositionID, func(c *domain.SampleComposition) error {
					c.Content = *oldSampleID
					return nil
				}); err != nil {
					return err
				}
			}
		}
		finalContent = newContent
		return nil
	})
	return finalContent, recognized, res, err
}

// wellsHoldingSample lists wells on the plate (excluding excludeWellID)
// whose sample composition carries the given sample id.
func (s *Service) wellsHoldingSample(view TransactionView, plateID int64, sampleID string, excludeWellID int64) []domain.Well {
	var holders []domain.Well
	for _, w := range view.WellsOnPlate(plateID) {
		if w.ID == excludeWellID {
			continue
		}
		sample, ok := view.FindSampleComposition(w.CompositionID)
		if !ok || sample.SampleID == nil {
			continue
		}
		if *sample.SampleID == sampleID {
			holders = append(holders, w)
		}
	}
	return holders
}

// CommentWell sets the free-text note on a plated well.
func (s *Service) CommentWell(ctx context.Context, plateID int64, row, column int, text string) (domain.Well, Result, error) {
	var updated domain.Well
	res, err := s.run(ctx, "comment_well", func(tx Transaction) error {
		well, ok := tx.Snapshot().WellAt(plateID, row, column)
		if !ok {
			return domain.Invalidf("plate %d has no well at (%d, %d)", plateID, row, column)
		}
		var err error
		updated, err = tx.UpdateWell(well.ID, func(w *domain.Well) error {
			w.Notes = &text
			return nil
		})
		return err
	})
	return updated, res, err
}
