package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis implements Ledger on a Redis server, for deployments without a
// Realtime Database. Toggle atomicity comes from an optimistic WATCH
// transaction on the interaction record key; counter math uses native
// INCRBY.
type Redis struct {
	cli    *redis.Client
	logger *slog.Logger
}

// NewRedis connects to the Redis server and pings it to ensure the
// connection is working.
func NewRedis(ctx context.Context, addr string, logger *slog.Logger) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{cli: cli, logger: logger}, nil
}

const ledgerPrefix = "ledger"

// clampedIncrBy adds the delta and floors the counter at zero in one script.
var clampedIncrBy = redis.NewScript(`
local v = redis.call('INCRBY', KEYS[1], ARGV[1])
if v < 0 then
  redis.call('SET', KEYS[1], 0)
  v = 0
end
return v
`)

func (r *Redis) base(entity Entity, kind models.InteractionKind) string {
	return fmt.Sprintf("%s:%s:%s:%s", ledgerPrefix, entity.Kind, entity.ID, kind)
}

func (r *Redis) counterKey(entity Entity, kind models.InteractionKind) string {
	return r.base(entity, kind) + ":count"
}

func (r *Redis) actorKey(entity Entity, kind models.InteractionKind, actorID string) string {
	return r.base(entity, kind) + ":actors:" + actorID
}

func (r *Redis) ToggleInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, int64, error) {
	recordKey := r.actorKey(entity, kind, actorID)
	counterKey := r.counterKey(entity, kind)

	var present bool
	var count int64

	err := withRetry(ctx, func() error {
		return r.cli.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, recordKey).Result()
			if err != nil {
				return err
			}
			var incr *redis.IntCmd
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if exists == 0 {
					pipe.Set(ctx, recordKey, time.Now().UnixMilli(), 0)
					incr = pipe.IncrBy(ctx, counterKey, 1)
				} else {
					pipe.Del(ctx, recordKey)
					incr = pipe.IncrBy(ctx, counterKey, -1)
				}
				return nil
			})
			if err != nil {
				return err
			}
			present = exists == 0
			count = incr.Val()
			return nil
		}, recordKey)
	})
	if err != nil {
		return false, 0, fmt.Errorf("toggle %s: %w", recordKey, err)
	}
	if count < 0 {
		// Counter key lost out of band; re-floor it.
		r.cli.Set(ctx, counterKey, 0, 0)
		count = 0
	}
	return present, count, nil
}

func (r *Redis) AppendChild(ctx context.Context, entity Entity, kind models.InteractionKind, rec ChildRecord) (string, int64, error) {
	childID := uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	indexKey := r.base(entity, kind) + ":children"
	childKey := indexKey + ":" + childID
	counterKey := r.counterKey(entity, kind)

	var count int64

	err := withRetry(ctx, func() error {
		return r.cli.Watch(ctx, func(tx *redis.Tx) error {
			var incr *redis.IntCmd
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, childKey, "actor_id", rec.ActorID, "content", rec.Content, "created_at", rec.CreatedAt.UnixMilli())
				pipe.ZAdd(ctx, indexKey, redis.Z{
					Score:  float64(rec.CreatedAt.UnixNano()),
					Member: childKey,
				})
				incr = pipe.IncrBy(ctx, counterKey, 1)
				return nil
			})
			if err != nil {
				return err
			}
			count = incr.Val()
			return nil
		}, childKey)
	})
	if err != nil {
		return "", 0, fmt.Errorf("append %s: %w", childKey, err)
	}
	return childID, count, nil
}

func (r *Redis) RemoveChild(ctx context.Context, entity Entity, kind models.InteractionKind, childID string) (int64, error) {
	indexKey := r.base(entity, kind) + ":children"
	childKey := indexKey + ":" + childID
	counterKey := r.counterKey(entity, kind)

	var count int64

	err := withRetry(ctx, func() error {
		return r.cli.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, childKey).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				count, err = tx.Get(ctx, counterKey).Int64()
				if err == redis.Nil {
					count, err = 0, nil
				}
				return err
			}
			var incr *redis.IntCmd
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, childKey)
				pipe.ZRem(ctx, indexKey, childKey)
				incr = pipe.IncrBy(ctx, counterKey, -1)
				return nil
			})
			if err != nil {
				return err
			}
			count = incr.Val()
			return nil
		}, childKey)
	})
	if err != nil {
		return 0, fmt.Errorf("remove child %s: %w", childKey, err)
	}
	if count < 0 {
		r.cli.Set(ctx, counterKey, 0, 0)
		count = 0
	}
	return count, nil
}

func (r *Redis) IncrementCounter(ctx context.Context, entity Entity, kind models.InteractionKind, delta int64) (int64, error) {
	var count int64
	err := withRetry(ctx, func() error {
		v, err := clampedIncrBy.Run(ctx, r.cli, []string{r.counterKey(entity, kind)}, delta).Int64()
		if err != nil {
			return err
		}
		count = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", entity.Path(), kind, err)
	}
	return count, nil
}

func (r *Redis) HasInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, error) {
	n, err := r.cli.Exists(ctx, r.actorKey(entity, kind, actorID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Counter(ctx context.Context, entity Entity, kind models.InteractionKind) (int64, error) {
	v, err := r.cli.Get(ctx, r.counterKey(entity, kind)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	return v, nil
}

func (r *Redis) RemoveEntity(ctx context.Context, entity Entity) error {
	pattern := fmt.Sprintf("%s:%s:%s:*", ledgerPrefix, entity.Kind, entity.ID)
	iter := r.cli.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.cli.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Error("ledger cascade delete failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	return nil
}
