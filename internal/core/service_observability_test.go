package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"perfusioncore/internal/infra/persistence/memory"
)

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func TestServiceEmitsSpansMetricsAndLogs(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	tracer := &captureTracer{}
	metrics := &captureMetricsRecorder{}
	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)),
		WithTracer(tracer),
		WithMetrics(metrics),
		WithClock(newStepClock(time.Millisecond)),
	)
	p := mustCreatePatient(t, svc, PatientFields{Name: "Obs"})
	if _, _, err := svc.CreatePatient(ctx, PatientFields{Name: "Bad", Age: -2}); err == nil {
		t.Fatalf("expected violation")
	}
	if _, found, _ := svc.UpdatePatient(ctx, "missing", PatientUpdate{}); found {
		t.Fatalf("expected not found")
	}
	if ok, err := svc.DeletePatient(ctx, p.ID); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}

	wantOps := []string{"create_patient", "create_patient", "update_patient", "delete_patient"}
	if strings.Join(tracer.started, ",") != strings.Join(wantOps, ",") {
		t.Fatalf("unexpected spans %v", tracer.started)
	}
	if tracer.ended[1].err == nil || tracer.ended[2].err != nil {
		t.Fatalf("span errors should reflect blocked create and quiet not-found: %+v", tracer.ended)
	}
	if !metrics.has("create_patient", true) || !metrics.has("create_patient", false) {
		t.Fatalf("unexpected metrics %+v", metrics.calls)
	}
	out := logs.String()
	for _, want := range []string{
		`"level":"debug"`, `"message":"operation committed"`,
		`"level":"warn"`, `"message":"operation blocked by rules"`,
		`"level":"info"`, `"message":"record not found"`,
		`"message":"cascade removed calculations"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestServicePersistFailureLogsError(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(newFailingStore(nil), WithLogger(zerolog.New(&logs)))
	if _, _, err := svc.CreatePatient(context.Background(), PatientFields{Name: "x"}); err == nil {
		t.Fatalf("expected error")
	}
	if out := logs.String(); !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"slot":"patients"`) {
		t.Fatalf("expected error log with slot, got %s", out)
	}
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	svc := NewInMemoryService(nil, WithClock(nil), WithMetrics(nil), WithTracer(nil))
	if _, ok := svc.clock.(systemClock); !ok {
		t.Fatalf("expected system clock, got %T", svc.clock)
	}
	if _, ok := svc.metrics.(noopMetrics); !ok {
		t.Fatalf("expected noop metrics, got %T", svc.metrics)
	}
	if _, ok := svc.tracer.(noopTracer); !ok {
		t.Fatalf("expected noop tracer, got %T", svc.tracer)
	}
	mustCreatePatient(t, svc, PatientFields{Name: "defaults"})
}

func TestReadsLogViewFailures(t *testing.T) {
	var logs bytes.Buffer
	store := unreadableStore{Store: memory.NewStore(NewDefaultRulesEngine())}
	svc := NewService(store, WithLogger(zerolog.New(&logs)))

	if p, found := svc.GetPatientWithCalculations("any"); found || p.ID != "" {
		t.Fatalf("expected not found on failed view, got %+v", p)
	}
	if list := svc.ListPatientsWithCalculations(); list != nil {
		t.Fatalf("expected nil list on failed view, got %v", list)
	}
	out := logs.String()
	for _, op := range []string{`"op":"get_patient"`, `"op":"list_patients"`} {
		if !strings.Contains(out, op) || !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "snapshot unavailable") {
			t.Fatalf("expected error log for %s, got %s", op, out)
		}
	}
}
