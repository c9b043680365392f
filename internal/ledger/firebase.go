package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/google/uuid"
	"github.com/koinonia-app/backend/internal/models"
)

// Firebase implements Ledger on the Firebase Realtime Database. Each
// (entity, kind) pair lives under one node holding the counter, the per-actor
// toggle records, and the append-only children, so a toggle and its counter
// adjustment commit in a single RTDB transaction.
//
// Layout:
//
//	ledger/{entityKind}/{entityID}/{interactionKind} -> {
//	    count:    int,
//	    actors:   { actorID: unixMillis },
//	    children: { childID: {actorId, content, createdAt} },
//	}
type Firebase struct {
	client *db.Client
	logger *slog.Logger
}

// NewFirebase wraps an initialized Realtime Database client.
func NewFirebase(client *db.Client, logger *slog.Logger) *Firebase {
	return &Firebase{client: client, logger: logger}
}

type rtdbNode struct {
	Count    int64                `json:"count"`
	Actors   map[string]int64     `json:"actors,omitempty"`
	Children map[string]rtdbChild `json:"children,omitempty"`
}

type rtdbChild struct {
	ActorID   string `json:"actorId"`
	Content   string `json:"content,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func (f *Firebase) ref(entity Entity, kind models.InteractionKind) *db.Ref {
	return f.client.NewRef("ledger/" + entity.Path() + "/" + string(kind))
}

// mapErr converts RTDB rule rejections into the permanent sentinel so the
// retry layer does not spin on them.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "Permission denied") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}

func (f *Firebase) ToggleInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, int64, error) {
	var present bool
	var count int64

	err := withRetry(ctx, func() error {
		return mapErr(f.ref(entity, kind).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
			var n rtdbNode
			if err := tn.Unmarshal(&n); err != nil {
				return nil, err
			}
			if n.Actors == nil {
				n.Actors = make(map[string]int64)
			}
			if _, ok := n.Actors[actorID]; ok {
				delete(n.Actors, actorID)
				if n.Count > 0 {
					n.Count--
				}
				present = false
			} else {
				n.Actors[actorID] = time.Now().UnixMilli()
				n.Count++
				present = true
			}
			count = n.Count
			return n, nil
		}))
	})
	if err != nil {
		return false, 0, fmt.Errorf("toggle %s/%s: %w", entity.Path(), kind, err)
	}
	return present, count, nil
}

func (f *Firebase) AppendChild(ctx context.Context, entity Entity, kind models.InteractionKind, rec ChildRecord) (string, int64, error) {
	childID := uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var count int64

	err := withRetry(ctx, func() error {
		return mapErr(f.ref(entity, kind).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
			var n rtdbNode
			if err := tn.Unmarshal(&n); err != nil {
				return nil, err
			}
			if n.Children == nil {
				n.Children = make(map[string]rtdbChild)
			}
			n.Children[childID] = rtdbChild{
				ActorID:   rec.ActorID,
				Content:   rec.Content,
				CreatedAt: rec.CreatedAt.UnixMilli(),
			}
			n.Count++
			count = n.Count
			return n, nil
		}))
	})
	if err != nil {
		return "", 0, fmt.Errorf("append %s/%s: %w", entity.Path(), kind, err)
	}
	return childID, count, nil
}

func (f *Firebase) RemoveChild(ctx context.Context, entity Entity, kind models.InteractionKind, childID string) (int64, error) {
	var count int64

	err := withRetry(ctx, func() error {
		return mapErr(f.ref(entity, kind).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
			var n rtdbNode
			if err := tn.Unmarshal(&n); err != nil {
				return nil, err
			}
			if _, ok := n.Children[childID]; ok {
				delete(n.Children, childID)
				if n.Count > 0 {
					n.Count--
				}
			}
			count = n.Count
			return n, nil
		}))
	})
	if err != nil {
		return 0, fmt.Errorf("remove child %s/%s: %w", entity.Path(), kind, err)
	}
	return count, nil
}

func (f *Firebase) IncrementCounter(ctx context.Context, entity Entity, kind models.InteractionKind, delta int64) (int64, error) {
	var count int64

	err := withRetry(ctx, func() error {
		return mapErr(f.ref(entity, kind).Child("count").Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
			var v int64
			if err := tn.Unmarshal(&v); err != nil {
				return nil, err
			}
			v += delta
			if v < 0 {
				v = 0
			}
			count = v
			return v, nil
		}))
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", entity.Path(), kind, err)
	}
	return count, nil
}

func (f *Firebase) HasInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, error) {
	var v interface{}
	if err := f.ref(entity, kind).Child("actors/" + actorID).Get(ctx, &v); err != nil {
		return false, mapErr(err)
	}
	return v != nil, nil
}

func (f *Firebase) Counter(ctx context.Context, entity Entity, kind models.InteractionKind) (int64, error) {
	var v int64
	if err := f.ref(entity, kind).Child("count").Get(ctx, &v); err != nil {
		return 0, mapErr(err)
	}
	return v, nil
}

func (f *Firebase) RemoveEntity(ctx context.Context, entity Entity) error {
	err := withRetry(ctx, func() error {
		return mapErr(f.client.NewRef("ledger/" + entity.Path()).Delete(ctx))
	})
	if err != nil {
		f.logger.Error("ledger cascade delete failed", "entity", entity.Path(), "error", err)
		return fmt.Errorf("remove entity %s: %w", entity.Path(), err)
	}
	return nil
}
