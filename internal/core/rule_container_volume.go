package core

import (
	"context"
	"fmt"

	"labcore/pkg/domain"
)

// ContainerVolumeRule blocks wells and tubes from dropping below zero
// remaining volume.
type ContainerVolumeRule struct{}

func (ContainerVolumeRule) Name() string { return "container_volume" }

func (ContainerVolumeRule) Evaluate(ctx context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		switch after := change.After.(type) {
		case domain.Well:
			if after.RemainingVolume < 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "container_volume",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("well %d remaining volume %g is negative", after.ID, after.RemainingVolume),
					Entity:   domain.EntityWell,
					EntityID: after.ID,
				})
			}
		case domain.Tube:
			if after.RemainingVolume < 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "container_volume",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("tube %q remaining volume %g is negative", after.ExternalID, after.RemainingVolume),
					Entity:   domain.EntityTube,
					EntityID: after.ID,
				})
			}
		}
	}
	return res, nil
}
