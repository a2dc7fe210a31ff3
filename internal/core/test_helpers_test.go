package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"perfusioncore/internal/infra/persistence/memory"
	"perfusioncore/pkg/domain"
)

// stepClock returns start and advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct{ calls []metricsCall }

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

// failingStore is a memory store whose persist hook always fails.
type failingStore struct {
	*memory.Store
	err error
}

func newFailingStore(engine *domain.RulesEngine) *failingStore {
	return &failingStore{
		Store: memory.NewStore(engine),
		err:   &domain.PersistError{Slot: domain.SlotPatients, Err: errors.New("disk unplugged")},
	}
}

func (f *failingStore) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	return f.Store.RunInTransactionWithHook(ctx, fn, func(context.Context, memory.Snapshot, []domain.Slot) error {
		return f.err
	})
}

// unreadableStore is a memory store whose reads always fail.
type unreadableStore struct {
	*memory.Store
}

func (u unreadableStore) View(context.Context, func(domain.TransactionView) error) error {
	return errors.New("snapshot unavailable")
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func mustCreatePatient(t interface {
	Helper()
	Fatalf(string, ...any)
}, svc *Service, fields PatientFields) Patient {
	t.Helper()
	p, _, err := svc.CreatePatient(context.Background(), fields)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}
