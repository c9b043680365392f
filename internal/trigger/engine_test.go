package trigger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/neilotoole/slogt"
)

type appliedWrite struct {
	entityID string
	value    int64
}

func waitFor(t *testing.T, ch <-chan appliedWrite) appliedWrite {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler invocation")
		return appliedWrite{}
	}
}

func TestEngineAppliesAbsoluteValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan appliedWrite, 8)
	e := New(slogt.New(t))
	e.Handle(models.EntityPost, models.KindAmen, func(ctx context.Context, entityID string, value int64) error {
		applied <- appliedWrite{entityID: entityID, value: value}
		return nil
	})
	e.Start(ctx, 1)

	e.CounterChanged(ledger.CounterEvent{
		Entity: ledger.Entity{Kind: models.EntityPost, ID: "p1"},
		Kind:   models.KindAmen,
		Value:  7,
	})

	w := waitFor(t, applied)
	if w.entityID != "p1" || w.value != 7 {
		t.Errorf("got %+v, want {p1 7}", w)
	}
}

func TestEngineRedeliveryConvergesToLastValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var last int64
	applied := make(chan appliedWrite, 8)
	e := New(slogt.New(t))
	e.Handle(models.EntityPost, models.KindLightbulb, func(ctx context.Context, entityID string, value int64) error {
		mu.Lock()
		last = value
		mu.Unlock()
		applied <- appliedWrite{entityID: entityID, value: value}
		return nil
	})
	e.Start(ctx, 1)

	entity := ledger.Entity{Kind: models.EntityPost, ID: "p1"}
	for _, v := range []int64{1, 2, 2, 3} {
		e.CounterChanged(ledger.CounterEvent{Entity: entity, Kind: models.KindLightbulb, Value: v})
	}
	for i := 0; i < 4; i++ {
		waitFor(t, applied)
	}

	mu.Lock()
	defer mu.Unlock()
	if last != 3 {
		t.Errorf("final value %d, want 3", last)
	}
}

func TestEngineRetriesTransientFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	attempts := 0
	applied := make(chan appliedWrite, 1)
	e := New(slogt.New(t))
	e.Handle(models.EntityUser, models.KindFollow, func(ctx context.Context, entityID string, value int64) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return errors.New("transient store error")
		}
		applied <- appliedWrite{entityID: entityID, value: value}
		return nil
	})
	e.Start(ctx, 1)

	e.CounterChanged(ledger.CounterEvent{
		Entity: ledger.Entity{Kind: models.EntityUser, ID: "u2"},
		Kind:   models.KindFollow,
		Value:  1,
	})

	w := waitFor(t, applied)
	if w.entityID != "u2" || w.value != 1 {
		t.Errorf("got %+v, want {u2 1}", w)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestEngineIgnoresUnregisteredPair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan appliedWrite, 8)
	e := New(slogt.New(t))
	e.Handle(models.EntityPost, models.KindAmen, func(ctx context.Context, entityID string, value int64) error {
		applied <- appliedWrite{entityID: entityID, value: value}
		return nil
	})
	e.Start(ctx, 1)

	// No handler for this pair; the event is dropped without blocking the
	// worker.
	e.CounterChanged(ledger.CounterEvent{
		Entity: ledger.Entity{Kind: models.EntityPost, ID: "p1"},
		Kind:   models.KindRepost,
		Value:  9,
	})
	e.CounterChanged(ledger.CounterEvent{
		Entity: ledger.Entity{Kind: models.EntityPost, ID: "p1"},
		Kind:   models.KindAmen,
		Value:  4,
	})

	w := waitFor(t, applied)
	if w.value != 4 {
		t.Errorf("got %+v, want the amen event with value 4", w)
	}
	select {
	case w := <-applied:
		t.Errorf("unexpected extra invocation: %+v", w)
	case <-time.After(100 * time.Millisecond):
	}
}
