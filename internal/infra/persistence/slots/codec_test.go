package slots

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/pkg/domain"
)

func TestEncodeEmptyCollectionsAsArrays(t *testing.T) {
	codec := NewCodec(zerolog.Nop())
	payloads, err := codec.EncodeSlots(memory.Snapshot{}, domain.Slots)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected two payloads, got %d", len(payloads))
	}
	for _, p := range payloads {
		if string(p.Data) != "[]" {
			t.Fatalf("slot %s encoded as %s", p.Slot, p.Data)
		}
	}
	if _, err := codec.EncodeSlots(memory.Snapshot{}, []domain.Slot{"bogus"}); err == nil {
		t.Fatalf("expected error for unknown slot")
	}
}

func TestRoundTripThroughPayloads(t *testing.T) {
	codec := NewCodec(zerolog.Nop())
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	z := 0.4
	snap := memory.Snapshot{
		Patients: []domain.Patient{{ID: "p1", PatientFields: domain.PatientFields{Name: "Eva", Sex: domain.SexFemale}, CreatedAt: ts, UpdatedAt: ts}},
		Calculations: []domain.CalculationResult{{
			ID:                "c1",
			CalculationFields: domain.CalculationFields{PatientID: "p1", Type: domain.CalculationPediatricBypass, Outputs: domain.CalculationOutputs{ZScore: &z}},
			Timestamp:         ts,
		}},
	}
	payloads, err := codec.EncodeSlots(snap, domain.Slots)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := map[domain.Slot][]byte{}
	for _, p := range payloads {
		raw[p.Slot] = p.Data
	}
	got := codec.Decode(raw)
	if len(got.Patients) != 1 || got.Patients[0].Name != "Eva" || !got.Patients[0].CreatedAt.Equal(ts) {
		t.Fatalf("unexpected patients %+v", got.Patients)
	}
	if len(got.Calculations) != 1 || *got.Calculations[0].Outputs.ZScore != 0.4 {
		t.Fatalf("unexpected calculations %+v", got.Calculations)
	}
}

func TestDecodeToleratesCorruptAndMissingSlots(t *testing.T) {
	var buf bytes.Buffer
	codec := NewCodec(zerolog.New(&buf))
	got := codec.Decode(map[domain.Slot][]byte{
		domain.SlotPatients: []byte(`{not json`),
	})
	if len(got.Patients) != 0 || len(got.Calculations) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"slot":"patients"`) {
		t.Fatalf("expected warn log for corrupt slot, got %s", buf.String())
	}
}

func TestDecodeKeepsPatientsWithUnknownGender(t *testing.T) {
	codec := NewCodec(zerolog.Nop())
	got := codec.Decode(map[domain.Slot][]byte{
		domain.SlotPatients: []byte(`[
			{"id":"a","name":"Ana","gender":"femenino","age":54,"createdAt":"2024-02-01T10:00:00Z","updatedAt":"2024-02-01T10:00:00Z"},
			{"id":"b","name":"Leo","gender":"hombre","age":40,"createdAt":"2024-02-01T10:00:00Z","updatedAt":"2024-02-01T10:00:00Z"}]`),
	})
	if len(got.Patients) != 2 {
		t.Fatalf("expected both patients, got %+v", got.Patients)
	}
	if got.Patients[0].Sex != domain.SexFemale || got.Patients[1].Sex != domain.Sex("hombre") {
		t.Fatalf("unexpected sexes %q %q", got.Patients[0].Sex, got.Patients[1].Sex)
	}
}

func TestDecodeSkipsOnlyUnreadableRecords(t *testing.T) {
	var buf bytes.Buffer
	codec := NewCodec(zerolog.New(&buf))
	got := codec.Decode(map[domain.Slot][]byte{
		domain.SlotPatients: []byte(`[
			{"id":"a","name":"Ana","age":54},
			{"id":"b","name":"Leo","age":"forty"},
			{"id":"c","name":"Eva","age":33}]`),
		domain.SlotCalculations: []byte(`[
			{"id":"c1","patientId":"a","type":"cec-adulto","timestamp":"2024-02-01T11:00:00Z"},
			{"id":"c2","patientId":"a","timestamp":"yesterday"}]`),
	})
	if len(got.Patients) != 2 || got.Patients[0].ID != "a" || got.Patients[1].ID != "c" {
		t.Fatalf("expected patients a and c, got %+v", got.Patients)
	}
	if len(got.Calculations) != 1 || got.Calculations[0].ID != "c1" {
		t.Fatalf("expected calculation c1 only, got %+v", got.Calculations)
	}
	logs := buf.String()
	if !strings.Contains(logs, "skipping unreadable record") || !strings.Contains(logs, `"index":1`) {
		t.Fatalf("expected per-record warn log, got %s", logs)
	}
	if strings.Contains(logs, "discarding unreadable slot") {
		t.Fatalf("slot must not be discarded whole, got %s", logs)
	}
}

func TestDecodeLegacyBrowserPayload(t *testing.T) {
	legacy := []byte(`[{"id":"1700000000000","name":"Juan","surname":"Pérez","gender":"masculino","age":61,
		"diagnosis":"","medicalHistory":"","allergies":"","plannedSurgery":"CABG","surgeonName":"","notes":"",
		"createdAt":"2024-02-01T10:00:00.000Z","updatedAt":"2024-02-01T10:00:00.000Z"}]`)
	var snap memory.Snapshot
	if err := DecodeStrict(domain.SlotPatients, legacy, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Patients) != 1 || snap.Patients[0].Sex != domain.SexMale || snap.Patients[0].PlannedSurgery != "CABG" {
		t.Fatalf("unexpected legacy decode %+v", snap.Patients)
	}
	if err := DecodeStrict(domain.SlotCalculations, []byte("null"), &snap); err != nil || snap.Calculations != nil {
		t.Fatalf("null payload should decode to empty: %v", err)
	}
	if err := DecodeStrict("other", []byte("[]"), &snap); err == nil {
		t.Fatalf("expected unknown slot error")
	}
}
