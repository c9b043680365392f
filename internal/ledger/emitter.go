package ledger

import (
	"context"
	"time"

	"github.com/koinonia-app/backend/internal/models"
)

// CounterSink observes counter-path mutations. The sync trigger engine
// implements this.
type CounterSink interface {
	CounterChanged(ev CounterEvent)
}

// InteractionSink observes interaction-record mutations. The notification
// fan-out service implements this.
type InteractionSink interface {
	InteractionRecorded(ev InteractionEvent)
}

// Emitting decorates a Ledger so every successful mutation fires the
// registered sinks, the way the backing store's own trigger platform would.
// Delivery is at-least-once from the sinks' perspective; they must be
// idempotent.
type Emitting struct {
	Ledger
	Counters     []CounterSink
	Interactions []InteractionSink
}

func (e *Emitting) emitCounter(entity Entity, kind models.InteractionKind, value int64) {
	ev := CounterEvent{Entity: entity, Kind: kind, Value: value}
	for _, s := range e.Counters {
		s.CounterChanged(ev)
	}
}

func (e *Emitting) emitInteraction(ev InteractionEvent) {
	for _, s := range e.Interactions {
		s.InteractionRecorded(ev)
	}
}

func (e *Emitting) ToggleInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, int64, error) {
	present, count, err := e.Ledger.ToggleInteraction(ctx, entity, kind, actorID)
	if err != nil {
		return present, count, err
	}
	e.emitCounter(entity, kind, count)
	e.emitInteraction(InteractionEvent{
		Entity:    entity,
		Kind:      kind,
		ActorID:   actorID,
		Present:   present,
		CreatedAt: time.Now(),
	})
	return present, count, nil
}

func (e *Emitting) AppendChild(ctx context.Context, entity Entity, kind models.InteractionKind, rec ChildRecord) (string, int64, error) {
	childID, count, err := e.Ledger.AppendChild(ctx, entity, kind, rec)
	if err != nil {
		return childID, count, err
	}
	e.emitCounter(entity, kind, count)
	e.emitInteraction(InteractionEvent{
		Entity:    entity,
		Kind:      kind,
		ActorID:   rec.ActorID,
		ChildID:   childID,
		Preview:   rec.Content,
		Present:   true,
		CreatedAt: rec.CreatedAt,
	})
	return childID, count, nil
}

func (e *Emitting) RemoveChild(ctx context.Context, entity Entity, kind models.InteractionKind, childID string) (int64, error) {
	count, err := e.Ledger.RemoveChild(ctx, entity, kind, childID)
	if err != nil {
		return count, err
	}
	e.emitCounter(entity, kind, count)
	return count, nil
}

func (e *Emitting) IncrementCounter(ctx context.Context, entity Entity, kind models.InteractionKind, delta int64) (int64, error) {
	count, err := e.Ledger.IncrementCounter(ctx, entity, kind, delta)
	if err != nil {
		return count, err
	}
	e.emitCounter(entity, kind, count)
	return count, nil
}
