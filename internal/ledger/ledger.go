// Package ledger provides the fast, low-latency interaction store: atomic
// toggle of interaction records, atomic counter math, and append-only child
// records. Every client-initiated interaction hits this store first; the
// durable stores are mirrored from it asynchronously.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/koinonia-app/backend/internal/models"
)

// ErrPermissionDenied marks a write rejected by the store's security rules.
// It is permanent: callers must surface it, never retry it.
var ErrPermissionDenied = errors.New("ledger: permission denied")

// Entity addresses one entity's subtree in the ledger.
type Entity struct {
	Kind models.EntityKind
	ID   string
}

// Path returns the entity's path segment, e.g. "post/664f...".
func (e Entity) Path() string {
	return string(e.Kind) + "/" + e.ID
}

// ChildRecord is the payload of an append-only interaction (a comment).
type ChildRecord struct {
	ActorID   string
	Content   string
	CreatedAt time.Time
}

// CounterEvent reports the absolute post-write value of one aggregate
// counter. Observers must treat delivery as at-least-once and possibly
// out of order; the absolute value makes re-application harmless.
type CounterEvent struct {
	Entity Entity
	Kind   models.InteractionKind
	Value  int64
}

// InteractionEvent reports one actor's interaction record changing state.
type InteractionEvent struct {
	Entity    Entity
	Kind      models.InteractionKind
	ActorID   string
	ChildID   string
	Preview   string
	Present   bool
	CreatedAt time.Time
}

// Ledger is the set of atomic primitives over the fast store. All mutations
// are single atomic operations from the caller's perspective; none is ever a
// read-then-write.
type Ledger interface {
	// ToggleInteraction flips the (entity, kind, actor) record: creates it
	// and returns true if absent, deletes it and returns false if present.
	// The entity's counter for the kind is adjusted in the same atomic
	// mutation. The returned count is the post-write value.
	ToggleInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (present bool, count int64, err error)

	// AppendChild writes an append-only child record under the (entity,
	// kind) path with a generated unique key and increments the counter.
	AppendChild(ctx context.Context, entity Entity, kind models.InteractionKind, rec ChildRecord) (childID string, count int64, err error)

	// RemoveChild deletes an append-only child and decrements the counter.
	// Removing an absent child is a no-op.
	RemoveChild(ctx context.Context, entity Entity, kind models.InteractionKind, childID string) (count int64, err error)

	// IncrementCounter atomically adds delta to the (entity, kind) counter
	// and returns the new value. Counters clamp at zero.
	IncrementCounter(ctx context.Context, entity Entity, kind models.InteractionKind, delta int64) (int64, error)

	// HasInteraction reports whether the (entity, kind, actor) record
	// exists. This is the one ledger read exposed to clients, for instant
	// button-state rendering.
	HasInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, error)

	// Counter returns the current value of the (entity, kind) counter.
	Counter(ctx context.Context, entity Entity, kind models.InteractionKind) (int64, error)

	// RemoveEntity deletes the entity's whole subtree (cascade cleanup).
	RemoveEntity(ctx context.Context, entity Entity) error
}
