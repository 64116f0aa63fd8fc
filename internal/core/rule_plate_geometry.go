package core

import (
	"context"
	"fmt"

	"labcore/pkg/domain"
)

// PlateGeometryRule blocks wells created outside their plate's configured
// grid, and duplicate wells at one position.
type PlateGeometryRule struct{}

func (PlateGeometryRule) Name() string { return "plate_geometry" }

func (PlateGeometryRule) Evaluate(ctx context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntityWell || change.Action != domain.ActionCreate {
			continue
		}
		well, ok := change.After.(domain.Well)
		if !ok {
			continue
		}
		plate, ok := view.FindPlate(well.PlateID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plate_geometry",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("well %d references unknown plate %d", well.ID, well.PlateID),
				Entity:   domain.EntityWell,
				EntityID: well.ID,
			})
			continue
		}
		config, ok := view.FindPlateConfiguration(plate.PlateConfigurationID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plate_geometry",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("plate %d references unknown configuration %d", plate.ID, plate.PlateConfigurationID),
				Entity:   domain.EntityPlate,
				EntityID: plate.ID,
			})
			continue
		}
		if well.Row < 1 || well.Row > config.NumRows || well.Column < 1 || well.Column > config.NumColumns {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plate_geometry",
				Severity: domain.SeverityBlock,
				Message: fmt.Sprintf("well (%d, %d) is outside the %dx%d grid of plate %q",
					well.Row, well.Column, config.NumRows, config.NumColumns, plate.ExternalID),
				Entity:   domain.EntityWell,
				EntityID: well.ID,
			})
			continue
		}
		if existing, ok := view.WellAt(well.PlateID, well.Row, well.Column); ok && existing.ID != well.ID {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plate_geometry",
				Severity: domain.SeverityBlock,
				Message: fmt.Sprintf("plate %q already has a well at (%d, %d)",
					plate.ExternalID, well.Row, well.Column),
				Entity:   domain.EntityWell,
				EntityID: well.ID,
			})
		}
	}
	return res, nil
}
