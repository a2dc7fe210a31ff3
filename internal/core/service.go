package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/pkg/domain"
)

// Service exposes transactional patient and calculation operations over a
// persistent store. Every mutation is persisted before it becomes visible.
type Service struct {
	store   PersistentStore
	clock   Clock
	log     zerolog.Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to time operations.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the recorder observing every operation.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer wrapping every operation.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		clock:   systemClock{},
		log:     zerolog.Nop(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a non-durable store. The store
// stamps records with the service clock.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	s := NewService(nil, opts...)
	s.store = memory.NewStore(engine, memory.WithClock(s.clock.Now))
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run executes fn in a store transaction wrapped with tracing, metrics and
// logging. A domain.ErrNotFound outcome counts as a successful lookup miss.
func (s *Service) run(ctx context.Context, op string, fn func(Transaction) error) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	elapsed := s.clock.Now().Sub(start)
	notFound := errors.Is(err, domain.ErrNotFound)
	s.metrics.Observe(ctx, op, err == nil || notFound, elapsed)
	if notFound {
		span.End(nil)
	} else {
		span.End(err)
	}
	s.logOutcome(op, res, err, elapsed)
	return res, err
}

func (s *Service) logOutcome(op string, res Result, err error, elapsed time.Duration) {
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		s.log.Warn().Str("op", op).Str("rule", v.Rule).Str("entity_id", v.EntityID).Msg(v.Message)
	}
	var violation RuleViolationError
	var persistErr *domain.PersistError
	switch {
	case err == nil:
		s.log.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("operation committed")
	case errors.Is(err, domain.ErrNotFound):
		s.log.Info().Str("op", op).Err(err).Msg("record not found")
	case errors.As(err, &violation):
		s.log.Warn().Str("op", op).Err(err).Int("violations", len(violation.Result.Violations)).Msg("operation blocked by rules")
	case errors.As(err, &persistErr):
		s.log.Error().Str("op", op).Str("slot", string(persistErr.Slot)).Err(persistErr.Err).Msg("persist failed, state unchanged")
	default:
		s.log.Error().Str("op", op).Err(err).Msg("operation failed")
	}
}

// CreatePatient stores a new patient with a fresh id.
func (s *Service) CreatePatient(ctx context.Context, fields PatientFields) (Patient, Result, error) {
	var created Patient
	res, err := s.run(ctx, "create_patient", func(tx Transaction) error {
		var err error
		created, err = tx.CreatePatient(fields)
		return err
	})
	return created, res, err
}

// UpdatePatient merges the non-nil fields of update into the patient. A
// missing id reports found=false with no error and nothing persisted.
func (s *Service) UpdatePatient(ctx context.Context, id string, update PatientUpdate) (Patient, bool, error) {
	var updated Patient
	_, err := s.run(ctx, "update_patient", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePatient(id, func(f *PatientFields) error {
			update.Apply(f)
			return nil
		})
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return Patient{}, false, nil
	}
	if err != nil {
		return Patient{}, true, err
	}
	return updated, true, nil
}

// DeletePatient removes the patient and every calculation result that
// references it in one transaction. It reports false when id is unknown.
func (s *Service) DeletePatient(ctx context.Context, id string) (bool, error) {
	var removed int
	_, err := s.run(ctx, "delete_patient", func(tx Transaction) error {
		if err := tx.DeletePatient(id); err != nil {
			return err
		}
		removed = tx.DeleteCalculationsForPatient(id)
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.Debug().Str("patient_id", id).Int("calculations", removed).Msg("cascade removed calculations")
	return true, nil
}

// AddCalculation stores a calculation result with a fresh id and timestamp.
func (s *Service) AddCalculation(ctx context.Context, fields CalculationFields) (CalculationResult, Result, error) {
	var created CalculationResult
	res, err := s.run(ctx, "add_calculation", func(tx Transaction) error {
		var err error
		created, err = tx.CreateCalculation(fields)
		return err
	})
	return created, res, err
}

// GetPatientWithCalculations returns the patient and its results in insertion
// order; false signals not found.
func (s *Service) GetPatientWithCalculations(id string) (PatientWithCalculations, bool) {
	var out PatientWithCalculations
	var found bool
	err := s.store.View(context.Background(), func(v TransactionView) error {
		p, ok := v.FindPatient(id)
		if !ok {
			return nil
		}
		found = true
		out = PatientWithCalculations{Patient: p, Calculations: v.CalculationsForPatient(id)}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "get_patient").Str("patient_id", id).Msg("view failed")
		return PatientWithCalculations{}, false
	}
	return out, found
}

// ListPatientsWithCalculations returns every patient with its results, both
// in insertion order.
func (s *Service) ListPatientsWithCalculations() []PatientWithCalculations {
	var out []PatientWithCalculations
	err := s.store.View(context.Background(), func(v TransactionView) error {
		byPatient := make(map[string][]CalculationResult)
		for _, c := range v.ListCalculations() {
			byPatient[c.PatientID] = append(byPatient[c.PatientID], c)
		}
		patients := v.ListPatients()
		out = make([]PatientWithCalculations, 0, len(patients))
		for _, p := range patients {
			out = append(out, PatientWithCalculations{Patient: p, Calculations: byPatient[p.ID]})
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "list_patients").Msg("view failed")
		return nil
	}
	return out
}
