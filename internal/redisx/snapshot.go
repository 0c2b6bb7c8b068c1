package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// SnapshotCache keeps one JSON snapshot per user and archive scope.
// All scopes of a user share one hash so a single DEL invalidates them; a per-user
// generation counter keeps fetches that overlap an invalidation from refilling it.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = TTLSnapshot
	}
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Get returns ok=false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, userID, scope string) (orders.Snapshot, bool, error) {
	var snap orders.Snapshot
	b, err := c.rdb.HGet(ctx, fmt.Sprintf(KeySnapshot, userID), scope).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Generation is the user's current snapshot generation. Read it before fetching from the
// store and hand it to Put.
func (c *SnapshotCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, fmt.Sprintf(KeySnapshotGen, userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// putIfCurrent writes the snapshot only while the generation is unchanged.
// KEYS: generation, snapshot hash. ARGV: generation, scope, snapshot JSON, ttl in ms.
var putIfCurrent = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then cur = '0' end
if cur ~= ARGV[1] then return 0 end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[4])
return 1
`)

// Put caches snap for scope unless an Invalidate happened after gen was read, in which case
// the snapshot may predate a write and is dropped (stored=false).
func (c *SnapshotCache) Put(ctx context.Context, userID, scope string, gen int64, snap orders.Snapshot) (bool, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return false, err
	}
	keys := []string{fmt.Sprintf(KeySnapshotGen, userID), fmt.Sprintf(KeySnapshot, userID)}
	n, err := putIfCurrent.Run(ctx, c.rdb, keys, gen, scope, b, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops every scope of the user and bumps the generation, so fetches already in
// flight cannot write their results back.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	genKey := fmt.Sprintf(KeySnapshotGen, userID)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, TTLSnapshotGen)
	pipe.Del(ctx, fmt.Sprintf(KeySnapshot, userID))
	_, err := pipe.Exec(ctx)
	return err
}
