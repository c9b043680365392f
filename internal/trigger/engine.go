// Package trigger runs the sync trigger engine: reactive handlers bound to
// ledger counter paths that mirror each absolute counter value into the
// durable store.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/models"
)

// HandlerFunc applies one absolute counter value to the durable store. It
// must be idempotent: the engine may run it more than once for the same
// (entityID, value) pair.
type HandlerFunc func(ctx context.Context, entityID string, value int64) error

type handlerKey struct {
	entity models.EntityKind
	kind   models.InteractionKind
}

// Engine dispatches counter events to registered handlers. One handler per
// (entity kind, interaction kind) pair; events for different pairs run
// concurrently on the worker pool. Handlers receive absolute values, so
// redelivery and reordering only risk a stale value that the next write
// corrects, never corruption.
type Engine struct {
	logger       *slog.Logger
	handlers     map[handlerKey]HandlerFunc
	queue        chan ledger.CounterEvent
	writeTimeout time.Duration
	wg           sync.WaitGroup
}

// New creates an engine with an empty handler table.
func New(logger *slog.Logger) *Engine {
	return &Engine{
		logger:       logger,
		handlers:     make(map[handlerKey]HandlerFunc),
		queue:        make(chan ledger.CounterEvent, 256),
		writeTimeout: 10 * time.Second,
	}
}

// Handle registers the handler for one (entity kind, interaction kind) pair.
// Registering twice for the same pair replaces the handler. Not safe to call
// after Start.
func (e *Engine) Handle(entity models.EntityKind, kind models.InteractionKind, fn HandlerFunc) {
	e.handlers[handlerKey{entity: entity, kind: kind}] = fn
}

// CounterChanged enqueues a counter event for dispatch. It never blocks the
// caller: on backpressure the event is dropped and counted, and the durable
// store stays stale until the next write to that counter re-asserts the
// absolute value.
func (e *Engine) CounterChanged(ev ledger.CounterEvent) {
	select {
	case e.queue <- ev:
	default:
		metrics.TriggerDropped.Inc()
		e.logger.Warn("trigger queue full, dropping counter event",
			"entity", ev.Entity.Path(), "kind", ev.Kind, "value", ev.Value)
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled.
func (e *Engine) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-e.queue:
					e.dispatch(ctx, ev)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) dispatch(ctx context.Context, ev ledger.CounterEvent) {
	fn, ok := e.handlers[handlerKey{entity: ev.Entity.Kind, kind: ev.Kind}]
	if !ok {
		e.logger.Debug("no sync handler registered",
			"entity", ev.Entity.Path(), "kind", ev.Kind)
		return
	}

	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 3 * time.Second

	err := backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.writeTimeout)
		defer cancel()
		return fn(attemptCtx, ev.Entity.ID, ev.Value)
	}, backoff.WithMaxRetries(backoff.WithContext(b, ctx), 3))

	metrics.SyncDuration.WithLabelValues(string(ev.Entity.Kind), string(ev.Kind)).
		Observe(time.Since(start).Seconds())

	if err != nil {
		// Leave the durable counter stale; the next counter write
		// re-asserts the absolute value.
		metrics.SyncTotal.WithLabelValues(string(ev.Entity.Kind), string(ev.Kind), "error").Inc()
		e.logger.Error("counter sync failed, leaving durable store stale",
			"entity", ev.Entity.Path(), "kind", ev.Kind, "value", ev.Value, "error", err)
		return
	}
	metrics.SyncTotal.WithLabelValues(string(ev.Entity.Kind), string(ev.Kind), "ok").Inc()
}
