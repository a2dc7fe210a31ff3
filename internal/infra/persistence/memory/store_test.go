package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"perfusioncore/pkg/domain"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindPatient("missing"); ok {
			t.Fatalf("expected missing patient lookup")
		}
		created, err := tx.CreatePatient(domain.PatientFields{Name: "Ana", Surname: "Ruiz", Age: 54})
		if err != nil {
			return err
		}
		if created.ID == "" {
			t.Fatalf("expected generated ID")
		}
		if len(tx.Snapshot().ListPatients()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListPatients()) != 1 {
		t.Fatalf("expected stored patient")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListPatients()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListPatients()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

func TestStoreRuleViolationLeavesStateUntouched(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreatePatient(domain.PatientFields{Name: "Fail"})
		return e
	})
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListPatients()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(ctx context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	res.Merge(domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}})
	return res, nil
}

func TestStoreFnErrorRollsBack(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePatient(domain.PatientFields{Name: "Temp"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if len(store.ListPatients()) != 0 {
		t.Fatalf("expected rollback")
	}
}

func TestUpdatePatientPreservesIdentityAndAdvancesUpdatedAt(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore(nil, WithClock(fixedClock(created)), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	var id string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, err := tx.CreatePatient(domain.PatientFields{Name: "Luis", Age: 60})
		id = p.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "id-1" {
		t.Fatalf("expected injected id, got %q", id)
	}

	// Same clock reading: updatedAt must still move strictly forward.
	var updated domain.Patient
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePatient(id, func(f *domain.PatientFields) error {
			f.Diagnosis = "CAD"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != id || !updated.CreatedAt.Equal(created) {
		t.Fatalf("identity not preserved: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("expected updatedAt after createdAt: %v vs %v", updated.UpdatedAt, updated.CreatedAt)
	}
	got, ok := store.GetPatient(id)
	if !ok || got.Diagnosis != "CAD" || got.Name != "Luis" {
		t.Fatalf("unexpected stored patient %+v", got)
	}
}

func TestUpdateAndDeleteMissingPatient(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.UpdatePatient("missing", func(*domain.PatientFields) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found on update, got %v", err)
		}
		if err := tx.DeletePatient("missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found on delete, got %v", err)
		}
		p, err := tx.CreatePatient(domain.PatientFields{Name: "X"})
		if err != nil {
			return err
		}
		if _, err := tx.UpdatePatient(p.ID, func(*domain.PatientFields) error { return errors.New("mutator") }); err == nil {
			t.Fatalf("expected mutator error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestCalculationsOrderingAndCascade(t *testing.T) {
	store := NewStore(nil, WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	var a, b domain.Patient
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		if a, err = tx.CreatePatient(domain.PatientFields{Name: "A"}); err != nil {
			return err
		}
		if b, err = tx.CreatePatient(domain.PatientFields{Name: "B"}); err != nil {
			return err
		}
		for _, owner := range []string{a.ID, b.ID, a.ID} {
			if _, err := tx.CreateCalculation(domain.CalculationFields{PatientID: owner, Type: domain.CalculationAdultBypass}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var forA []domain.CalculationResult
	_ = store.View(ctx, func(v domain.TransactionView) error {
		forA = v.CalculationsForPatient(a.ID)
		return nil
	})
	if len(forA) != 2 || forA[0].ID != "id-3" || forA[1].ID != "id-5" {
		t.Fatalf("unexpected calculations for A: %+v", forA)
	}

	var removed int
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeletePatient(a.ID); err != nil {
			return err
		}
		removed = tx.DeleteCalculationsForPatient(a.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed calculations, got %d", removed)
	}
	calcs := store.ListCalculations()
	if len(calcs) != 1 || calcs[0].PatientID != b.ID {
		t.Fatalf("expected only B's calculation to survive: %+v", calcs)
	}
	patients := store.ListPatients()
	if len(patients) != 1 || patients[0].ID != b.ID {
		t.Fatalf("unexpected patients %+v", patients)
	}
}

func TestHookReceivesDirtySlotsAndCanAbort(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var gotSlots []domain.Slot
	var gotPatients int
	hook := func(_ context.Context, candidate Snapshot, dirty []domain.Slot) error {
		gotSlots = dirty
		gotPatients = len(candidate.Patients)
		return nil
	}
	if _, err := store.RunInTransactionWithHook(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePatient(domain.PatientFields{Name: "Hooked"})
		return err
	}, hook); err != nil {
		t.Fatalf("hooked tx: %v", err)
	}
	if !reflect.DeepEqual(gotSlots, []domain.Slot{domain.SlotPatients}) || gotPatients != 1 {
		t.Fatalf("unexpected hook input slots=%v patients=%d", gotSlots, gotPatients)
	}

	failing := func(context.Context, Snapshot, []domain.Slot) error { return errors.New("disk full") }
	_, err := store.RunInTransactionWithHook(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePatient(domain.PatientFields{Name: "Lost"})
		return err
	}, failing)
	if err == nil {
		t.Fatalf("expected hook error")
	}
	if len(store.ListPatients()) != 1 {
		t.Fatalf("failed hook must leave state unchanged")
	}

	called := false
	if _, err := store.RunInTransactionWithHook(ctx, func(domain.Transaction) error { return nil }, func(context.Context, Snapshot, []domain.Slot) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("empty tx: %v", err)
	}
	if called {
		t.Fatalf("hook must not run for transactions without changes")
	}
}

func TestDirtySlotsOrdering(t *testing.T) {
	got := dirtySlots([]domain.Change{
		{Entity: domain.EntityCalculation},
		{Entity: domain.EntityPatient},
		{Entity: domain.EntityCalculation},
		{Entity: domain.EntityType("unknown")},
	})
	if !reflect.DeepEqual(got, []domain.Slot{domain.SlotPatients, domain.SlotCalculations}) {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	store := NewStore(nil)
	zs := 1.5
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCalculation(domain.CalculationFields{PatientID: "p", Outputs: domain.CalculationOutputs{ZScore: &zs}})
		return err
	})
	if err != nil {
		t.Fatalf("create calculation: %v", err)
	}
	zs = 9
	exported := store.ExportState()
	if *exported.Calculations[0].Outputs.ZScore != 1.5 {
		t.Fatalf("store must not alias caller pointers")
	}
	*exported.Calculations[0].Outputs.ZScore = 7
	if *store.ListCalculations()[0].Outputs.ZScore != 1.5 {
		t.Fatalf("export must not alias store state")
	}
}

func TestRestoreKeepsIdentityAndRejectsDuplicates(t *testing.T) {
	store := NewStore(nil)
	created := time.Date(2023, 5, 4, 8, 0, 0, 0, time.UTC)
	p := domain.Patient{ID: "legacy-1", PatientFields: domain.PatientFields{Name: "Old"}, CreatedAt: created, UpdatedAt: created}
	c := domain.CalculationResult{ID: "calc-1", CalculationFields: domain.CalculationFields{PatientID: "legacy-1"}, Timestamp: created}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.RestorePatient(p); err != nil {
			return err
		}
		if err := tx.RestorePatient(p); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if err := tx.RestoreCalculation(domain.CalculationResult{}); err == nil {
			t.Fatalf("expected missing id error")
		}
		return tx.RestoreCalculation(c)
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, ok := store.GetPatient("legacy-1")
	if !ok || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected restored patient %+v", got)
	}
	if calcs := store.ListCalculations(); len(calcs) != 1 || calcs[0].ID != "calc-1" {
		t.Fatalf("unexpected calculations %+v", calcs)
	}
}
