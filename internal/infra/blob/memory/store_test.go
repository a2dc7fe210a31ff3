package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"perfusioncore/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver")
	}
	md := map[string]string{"slot": "patients"}
	if _, err := s.Put(ctx, "state/patients.json", bytes.NewBufferString("[]"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["slot"] = "mutated"
	info, err := s.Head(ctx, "state/patients.json")
	if err != nil || info.Metadata["slot"] != "patients" || info.Size != 2 {
		t.Fatalf("head: %+v %v", info, err)
	}
	if _, err := s.Put(ctx, "state/patients.json", bytes.NewBufferString("[1]"), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := s.Get(ctx, "state/patients.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "[1]" {
		t.Fatalf("unexpected body %s", body)
	}
	if _, err := s.Put(ctx, "other/x", bytes.NewBufferString("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	infos, _ := s.List(ctx, "state/")
	if len(infos) != 1 || infos[0].Key != "state/patients.json" {
		t.Fatalf("unexpected list %+v", infos)
	}
	if ok, _ := s.Delete(ctx, "state/patients.json"); !ok {
		t.Fatalf("expected delete")
	}
	if ok, _ := s.Delete(ctx, "state/patients.json"); ok {
		t.Fatalf("expected second delete to report missing")
	}
	if _, _, err := s.Get(ctx, "state/patients.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Put(ctx, " ", bytes.NewBufferString("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}
