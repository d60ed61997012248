package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache is a short-TTL read-through cache for race status
// projections. The race moves fast during bidding, so the TTL is seconds,
// not minutes; correctness never depends on it because every mutation goes
// straight to Mongo.
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatusCache creates a StatusCache. A nil client disables caching:
// Get always misses and Set is a no-op.
func NewStatusCache(rdb *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func statusKey(rfqID string) string {
	return fmt.Sprintf("racestatus:%s", rfqID)
}

// Get loads a cached projection into dest. Returns false on a miss or any
// cache-side failure; callers fall through to the database.
func (c *StatusCache) Get(ctx context.Context, rfqID string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, statusKey(rfqID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			fmt.Printf("race status cache read failed for %s: %v\n", rfqID, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// Set stores a projection. Cache failures are ignored.
func (c *StatusCache) Set(ctx context.Context, rfqID string, status interface{}) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, statusKey(rfqID), data, c.ttl).Err()
}

// Invalidate drops the cached projection after a state change.
func (c *StatusCache) Invalidate(ctx context.Context, rfqID string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, statusKey(rfqID)).Err()
}
