// internal/candidates/cache.go
package candidates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caregiver-matching/internal/common/database"
)

// SnapshotCache keeps the last good pool in Redis so a restarted gateway can serve
// while its loader is down.
type SnapshotCache struct {
	redis *database.RedisClient
	key   string
	ttl   time.Duration
}

func NewSnapshotCache(redis *database.RedisClient, key string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{redis: redis, key: key, ttl: ttl}
}

func (c *SnapshotCache) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.redis.Set(ctx, c.key, data, c.ttl)
}

// Load returns database.ErrCacheMiss when nothing is cached.
func (c *SnapshotCache) Load(ctx context.Context) (*Snapshot, error) {
	data, err := c.redis.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(snap.Candidates) == 0 {
		return nil, database.ErrCacheMiss
	}
	return &snap, nil
}
