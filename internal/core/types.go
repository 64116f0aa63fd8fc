// Package core exposes the transactional service that drives the wet-lab
// pipeline: plating, extraction, compression, library prep, normalization,
// quantification, pooling, and sequencing.
package core

import "labcore/pkg/domain"

// Aliases keep call sites inside the service terse without re-exporting the
// whole domain package.
type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	Result          = domain.Result
	RulesEngine     = domain.RulesEngine
)

// NewRulesEngine mirrors the domain constructor for callers wiring storage.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// DefaultRulesEngine returns an engine with the standard commit-time rules
// registered: plate geometry, container volume, and derivation integrity.
func DefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(PlateGeometryRule{})
	engine.Register(ContainerVolumeRule{})
	engine.Register(DerivationIntegrityRule{})
	return engine
}
