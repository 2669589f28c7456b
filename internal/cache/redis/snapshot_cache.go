package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using plain Redis strings.
// Each venue's most recent raw payload is stored at "snapshot:{key}" so a
// cycle can fall back to recent data when a venue fetch errors.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(key string) string {
	return "snapshot:" + key
}

// Put stores the payload under the key with the given TTL.
func (sc *SnapshotCache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := sc.rdb.Set(ctx, snapshotKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put snapshot %s: %w", key, err)
	}
	return nil
}

// Get retrieves the payload stored under the key.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get snapshot %s: %w", key, err)
	}
	return data, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
