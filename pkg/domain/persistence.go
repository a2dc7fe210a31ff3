package domain

import (
	"context"
	"errors"
	"fmt"
)

// Slot names the durable collections. Each slot holds the whole collection
// serialised as a JSON array.
type Slot string

// Persisted slots.
const (
	SlotPatients     Slot = "patients"
	SlotCalculations Slot = "calculations"
)

// Slots lists every persisted slot in write order.
var Slots = []Slot{SlotPatients, SlotCalculations}

// SlotFor maps an entity type to the slot that stores it.
func SlotFor(entity EntityType) (Slot, bool) {
	switch entity {
	case EntityPatient:
		return SlotPatients, true
	case EntityCalculation:
		return SlotCalculations, true
	}
	return "", false
}

var (
	// ErrPersist matches every persistence failure surfaced by durable stores.
	ErrPersist = errors.New("persist state")
	// ErrNotFound is returned by transactions that address a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a restored record id already exists.
	ErrConflict = errors.New("already exists")
)

// PersistError reports a failed write or read of a slot.
type PersistError struct {
	Slot Slot
	Err  error
}

func (e *PersistError) Error() string {
	if e.Slot == "" {
		return fmt.Sprintf("%s: %v", ErrPersist, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", ErrPersist, e.Slot, e.Err)
}

// Unwrap exposes the backend error.
func (e *PersistError) Unwrap() error { return e.Err }

// Is reports ErrPersist as a match so callers can test with errors.Is.
func (e *PersistError) Is(target error) bool { return target == ErrPersist }

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePatient(PatientFields) (Patient, error)
	UpdatePatient(id string, mutator func(*PatientFields) error) (Patient, error)
	DeletePatient(id string) error
	FindPatient(id string) (Patient, bool)
	CreateCalculation(CalculationFields) (CalculationResult, error)
	// DeleteCalculationsForPatient removes every result owned by patientID and
	// reports how many were removed.
	DeleteCalculationsForPatient(patientID string) int
	// RestorePatient and RestoreCalculation insert records verbatim, keeping
	// their ids and timestamps. Duplicate ids are rejected with ErrConflict.
	RestorePatient(Patient) error
	RestoreCalculation(CalculationResult) error
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListPatients() []Patient
	FindPatient(id string) (Patient, bool)
	ListCalculations() []CalculationResult
	CalculationsForPatient(patientID string) []CalculationResult
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPatient(id string) (Patient, bool)
	ListPatients() []Patient
	ListCalculations() []CalculationResult
	RulesEngine() *RulesEngine
}
