// Package memory provides the in-memory implementation of the patient
// repository. Durable backends wrap it and persist the slots a transaction
// touched before the new state becomes visible.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"perfusioncore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Patient aliases domain.Patient for in-memory persistence operations.
	Patient = domain.Patient
	// CalculationResult aliases domain.CalculationResult.
	CalculationResult = domain.CalculationResult
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// memoryState keeps insertion order; collections are small enough for linear scans.
type memoryState struct {
	patients     []Patient
	calculations []CalculationResult
}

// Snapshot captures a point-in-time clone of the store state. Field names
// match the persisted slot names.
type Snapshot struct {
	Patients     []Patient           `json:"patients"`
	Calculations []CalculationResult `json:"calculations"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	c := state.clone()
	return Snapshot{Patients: c.patients, Calculations: c.calculations}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	return memoryState{patients: s.Patients, calculations: s.Calculations}.clone()
}

func (s memoryState) clone() memoryState {
	cp := memoryState{
		patients:     make([]Patient, len(s.patients)),
		calculations: make([]CalculationResult, len(s.calculations)),
	}
	for i, p := range s.patients {
		cp.patients[i] = domain.ClonePatient(p)
	}
	for i, c := range s.calculations {
		cp.calculations[i] = domain.CloneCalculation(c)
	}
	return cp
}

func (s *memoryState) patientIndex(id string) int {
	for i := range s.patients {
		if s.patients[i].ID == id {
			return i
		}
	}
	return -1
}

// PersistHook receives the candidate state and the slots a transaction
// changed. A non-nil error aborts the commit and leaves the store untouched.
type PersistHook func(ctx context.Context, candidate Snapshot, dirty []domain.Slot) error

// Store provides an in-memory transactional store for patients and
// calculation results.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	idFn   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.idFn = gen
		}
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListPatients returns all patients in insertion order.
func (v transactionView) ListPatients() []Patient {
	out := make([]Patient, 0, len(v.state.patients))
	for _, p := range v.state.patients {
		out = append(out, domain.ClonePatient(p))
	}
	return out
}

// FindPatient looks up a patient by id.
func (v transactionView) FindPatient(id string) (Patient, bool) {
	if i := v.state.patientIndex(id); i >= 0 {
		return domain.ClonePatient(v.state.patients[i]), true
	}
	return Patient{}, false
}

// ListCalculations returns all calculation results in insertion order.
func (v transactionView) ListCalculations() []CalculationResult {
	out := make([]CalculationResult, 0, len(v.state.calculations))
	for _, c := range v.state.calculations {
		out = append(out, domain.CloneCalculation(c))
	}
	return out
}

// CalculationsForPatient returns the results owned by patientID in insertion order.
func (v transactionView) CalculationsForPatient(patientID string) []CalculationResult {
	out := []CalculationResult{}
	for _, c := range v.state.calculations {
		if c.PatientID == patientID {
			out = append(out, domain.CloneCalculation(c))
		}
	}
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunInTransactionWithHook(ctx, fn, nil)
}

// RunInTransactionWithHook behaves like RunInTransaction and additionally
// hands the candidate state to hook before committing. The hook only runs
// when the transaction recorded changes.
func (s *Store) RunInTransactionWithHook(ctx context.Context, fn func(tx Transaction) error, hook PersistHook) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if hook != nil && len(tx.changes) > 0 {
		if err := hook(ctx, snapshotFromMemoryState(tx.state), dirtySlots(tx.changes)); err != nil {
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// dirtySlots returns the slots touched by changes in domain.Slots order.
func dirtySlots(changes []Change) []domain.Slot {
	touched := make(map[domain.Slot]bool, len(domain.Slots))
	for _, c := range changes {
		if slot, ok := domain.SlotFor(c.Entity); ok {
			touched[slot] = true
		}
	}
	out := make([]domain.Slot, 0, len(touched))
	for _, slot := range domain.Slots {
		if touched[slot] {
			out = append(out, slot)
		}
	}
	return out
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPatient exposes patient lookup within the transaction scope.
func (tx *transaction) FindPatient(id string) (Patient, bool) {
	return newTransactionView(&tx.state).FindPatient(id)
}

// CreatePatient appends a new patient with a fresh id and timestamps.
func (tx *transaction) CreatePatient(fields domain.PatientFields) (Patient, error) {
	p := Patient{
		ID:            tx.store.idFn(),
		PatientFields: fields,
		CreatedAt:     tx.now,
		UpdatedAt:     tx.now,
	}
	if tx.state.patientIndex(p.ID) >= 0 {
		return Patient{}, fmt.Errorf("patient %q already exists", p.ID)
	}
	tx.state.patients = append(tx.state.patients, domain.ClonePatient(p))
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionCreate, After: domain.ClonePatient(p)})
	return p, nil
}

// UpdatePatient mutates a patient in place. The id and createdAt are
// preserved and updatedAt always moves forward.
func (tx *transaction) UpdatePatient(id string, mutator func(*domain.PatientFields) error) (Patient, error) {
	i := tx.state.patientIndex(id)
	if i < 0 {
		return Patient{}, fmt.Errorf("patient %q: %w", id, domain.ErrNotFound)
	}
	current := tx.state.patients[i]
	before := domain.ClonePatient(current)
	if err := mutator(&current.PatientFields); err != nil {
		return Patient{}, err
	}
	now := tx.now
	if !now.After(before.UpdatedAt) {
		now = before.UpdatedAt.Add(time.Microsecond)
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = now
	tx.state.patients[i] = current
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionUpdate, Before: before, After: domain.ClonePatient(current)})
	return domain.ClonePatient(current), nil
}

// DeletePatient removes the patient record. Owned calculation results are
// removed separately through DeleteCalculationsForPatient.
func (tx *transaction) DeletePatient(id string) error {
	i := tx.state.patientIndex(id)
	if i < 0 {
		return fmt.Errorf("patient %q: %w", id, domain.ErrNotFound)
	}
	current := tx.state.patients[i]
	tx.state.patients = append(tx.state.patients[:i:i], tx.state.patients[i+1:]...)
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCalculation appends a calculation result with a fresh id and timestamp.
func (tx *transaction) CreateCalculation(fields domain.CalculationFields) (CalculationResult, error) {
	c := domain.CloneCalculation(CalculationResult{
		ID:                tx.store.idFn(),
		CalculationFields: fields,
		Timestamp:         tx.now,
	})
	for _, existing := range tx.state.calculations {
		if existing.ID == c.ID {
			return CalculationResult{}, fmt.Errorf("calculation %q: %w", c.ID, domain.ErrConflict)
		}
	}
	tx.state.calculations = append(tx.state.calculations, c)
	tx.recordChange(Change{Entity: domain.EntityCalculation, Action: domain.ActionCreate, After: domain.CloneCalculation(c)})
	return domain.CloneCalculation(c), nil
}

// DeleteCalculationsForPatient removes every result owned by patientID.
func (tx *transaction) DeleteCalculationsForPatient(patientID string) int {
	kept := tx.state.calculations[:0:0]
	removed := 0
	for _, c := range tx.state.calculations {
		if c.PatientID == patientID {
			removed++
			tx.recordChange(Change{Entity: domain.EntityCalculation, Action: domain.ActionDelete, Before: c})
			continue
		}
		kept = append(kept, c)
	}
	if removed > 0 {
		tx.state.calculations = kept
	}
	return removed
}

// RestorePatient appends p unchanged.
func (tx *transaction) RestorePatient(p Patient) error {
	if p.ID == "" {
		return fmt.Errorf("restore patient: missing id")
	}
	if tx.state.patientIndex(p.ID) >= 0 {
		return fmt.Errorf("patient %q: %w", p.ID, domain.ErrConflict)
	}
	tx.state.patients = append(tx.state.patients, domain.ClonePatient(p))
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionCreate, After: domain.ClonePatient(p)})
	return nil
}

// RestoreCalculation appends c unchanged.
func (tx *transaction) RestoreCalculation(c CalculationResult) error {
	if c.ID == "" {
		return fmt.Errorf("restore calculation: missing id")
	}
	for _, existing := range tx.state.calculations {
		if existing.ID == c.ID {
			return fmt.Errorf("calculation %q: %w", c.ID, domain.ErrConflict)
		}
	}
	tx.state.calculations = append(tx.state.calculations, domain.CloneCalculation(c))
	tx.recordChange(Change{Entity: domain.EntityCalculation, Action: domain.ActionCreate, After: domain.CloneCalculation(c)})
	return nil
}

// GetPatient retrieves a patient by id.
func (s *Store) GetPatient(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindPatient(id)
}

// ListPatients returns all patients in insertion order.
func (s *Store) ListPatients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListPatients()
}

// ListCalculations returns all calculation results in insertion order.
func (s *Store) ListCalculations() []CalculationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListCalculations()
}
