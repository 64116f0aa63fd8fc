package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"labcore/pkg/domain"
)

// Service exposes the transactional pipeline operations. Every exported
// method runs as one atomic unit of work: process metadata and all derived
// containers/compositions commit together or not at all.
type Service struct {
	store    PersistentStore
	registry domain.SampleRegistry
	logger   *zap.Logger
	metrics  MetricsRecorder
	tracer   Tracer
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer attaches a tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService constructs a service over the supplied store and sample
// registry.
func NewService(store PersistentStore, reg domain.SampleRegistry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: reg,
		logger:   zap.NewNop(),
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Registry returns the configured sample registry.
func (s *Service) Registry() domain.SampleRegistry { return s.registry }

// run wraps a transaction with tracing, metrics, and logging.
func (s *Service) run(ctx context.Context, operation string, fn func(Transaction) error) (Result, error) {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Warn("operation failed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err))
		return res, err
	}
	s.logger.Info("operation committed",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.Int("violations", len(res.Violations)))
	return res, nil
}

// view wraps a read-only snapshot access with tracing.
func (s *Service) view(ctx context.Context, operation string, fn func(TransactionView) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	err := s.store.View(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	return err
}

// CreateUser registers an operator.
func (s *Service) CreateUser(ctx context.Context, user domain.User) (domain.User, Result, error) {
	var created domain.User
	res, err := s.run(ctx, "create_user", func(tx Transaction) error {
		var err error
		created, err = tx.CreateUser(user)
		return err
	})
	return created, res, err
}

// CreateEquipment registers a robot, tool, or sequencer.
func (s *Service) CreateEquipment(ctx context.Context, eq domain.Equipment) (domain.Equipment, Result, error) {
	var created domain.Equipment
	res, err := s.run(ctx, "create_equipment", func(tx Transaction) error {
		var err error
		created, err = tx.CreateEquipment(eq)
		return err
	})
	return created, res, err
}

// CreateStudy registers an external study.
func (s *Service) CreateStudy(ctx context.Context, study domain.Study) (domain.Study, Result, error) {
	var created domain.Study
	res, err := s.run(ctx, "create_study", func(tx Transaction) error {
		var err error
		created, err = tx.CreateStudy(study)
		return err
	})
	return created, res, err
}

// CreatePlateConfiguration registers a plate geometry.
func (s *Service) CreatePlateConfiguration(ctx context.Context, pc domain.PlateConfiguration) (domain.PlateConfiguration, Result, error) {
	var created domain.PlateConfiguration
	res, err := s.run(ctx, "create_plate_configuration", func(tx Transaction) error {
		var err error
		created, err = tx.CreatePlateConfiguration(pc)
		return err
	})
	return created, res, err
}

// UpdatePlateMetadata rewrites a plate's mutable metadata fields.
func (s *Service) UpdatePlateMetadata(ctx context.Context, plateID int64, mutator func(*domain.Plate) error) (domain.Plate, Result, error) {
	var updated domain.Plate
	res, err := s.run(ctx, "update_plate", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePlate(plateID, mutator)
		return err
	})
	return updated, res, err
}

// DiscardTube marks a tube as discarded. Re-discarding fails.
func (s *Service) DiscardTube(ctx context.Context, tubeID int64) (domain.Tube, Result, error) {
	var updated domain.Tube
	res, err := s.run(ctx, "discard_tube", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTube(tubeID, func(t *domain.Tube) error {
			if t.Discarded {
				return domain.DiscardedError{Entity: domain.EntityTube, ID: tubeID}
			}
			t.Discarded = true
			return nil
		})
		return err
	})
	return updated, res, err
}

// AdjustWellVolume sets a well's remaining volume. Negative values are
// rejected by the container volume rule at commit time.
func (s *Service) AdjustWellVolume(ctx context.Context, wellID int64, volume float64) (domain.Well, Result, error) {
	var updated domain.Well
	res, err := s.run(ctx, "adjust_well_volume", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateWell(wellID, func(w *domain.Well) error {
			w.RemainingVolume = volume
			return nil
		})
		return err
	})
	return updated, res, err
}

// UpdateProcessNotes rewrites the notes on any process variant.
func (s *Service) UpdateProcessNotes(ctx context.Context, processID int64, notes *string) (domain.Process, Result, error) {
	var updated domain.Process
	res, err := s.run(ctx, "update_process_notes", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProcessNotes(processID, notes)
		return err
	})
	return updated, res, err
}

// ProcessByID resolves any process variant through the stored type tag.
func (s *Service) ProcessByID(id int64) (domain.Process, error) {
	return s.store.ProcessByID(id)
}

// CompositionByID resolves any composition variant through the stored type tag.
func (s *Service) CompositionByID(id int64) (domain.Composition, error) {
	return s.store.CompositionByID(id)
}
