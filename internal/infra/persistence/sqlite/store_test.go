package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"perfusioncore/internal/infra/persistence/slots"
	"perfusioncore/pkg/domain"
)

func openStore(t *testing.T, path string, opts ...slots.Option) *Store {
	t.Helper()
	store, err := NewStore(path, domain.NewRulesEngine(), opts...)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func slotRows(t *testing.T, store *Store) map[string]string {
	t.Helper()
	rows, err := store.DB().Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]string{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[bucket] = string(payload)
	}
	return out
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	var patientID string
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		p, e := tx.CreatePatient(domain.PatientFields{Name: "Persist", Age: 70})
		if e != nil {
			return e
		}
		patientID = p.ID
		_, e = tx.CreateCalculation(domain.CalculationFields{PatientID: p.ID, Type: domain.CalculationAdultBypass})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = store.Close()

	reloaded := openStore(t, path)
	if got := reloaded.ListPatients(); len(got) != 1 || got[0].ID != patientID {
		t.Fatalf("expected reloaded patient, got %+v", got)
	}
	if got := reloaded.ListCalculations(); len(got) != 1 || got[0].PatientID != patientID {
		t.Fatalf("expected reloaded calculation, got %+v", got)
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %q", reloaded.Path())
	}
}

func TestSQLiteStoreWritesOnlyDirtySlots(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreatePatient(domain.PatientFields{Name: "Only"})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := slotRows(t, store)
	if _, ok := rows[string(domain.SlotPatients)]; !ok {
		t.Fatalf("expected patients slot, got %v", rows)
	}
	if _, ok := rows[string(domain.SlotCalculations)]; ok {
		t.Fatalf("calculations slot should not be written by a patient-only change")
	}
}

func TestSQLiteStoreToleratesCorruptSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateCalculation(domain.CalculationFields{PatientID: "p"})
		return e
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)`, "patients", []byte("{broken")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	_ = store.Close()

	var buf bytes.Buffer
	reloaded := openStore(t, path, slots.WithLogger(zerolog.New(&buf)))
	if len(reloaded.ListPatients()) != 0 {
		t.Fatalf("corrupt slot should load empty")
	}
	if len(reloaded.ListCalculations()) != 1 {
		t.Fatalf("healthy slot should still load")
	}
	if !strings.Contains(buf.String(), "discarding unreadable slot") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestSQLiteStorePersistFailureKeepsState(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	if _, err := store.DB().Exec(`DROP TABLE state`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreatePatient(domain.PatientFields{Name: "Lost"})
		return e
	})
	var pe *domain.PersistError
	if !errors.As(err, &pe) || !errors.Is(err, domain.ErrPersist) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if pe.Slot != domain.SlotPatients {
		t.Fatalf("expected patients slot in error, got %q", pe.Slot)
	}
	if len(store.ListPatients()) != 0 {
		t.Fatalf("state must be unchanged after persist failure")
	}
}
