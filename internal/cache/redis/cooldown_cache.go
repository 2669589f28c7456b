package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// CooldownCache implements domain.CooldownCache using Redis SETNX with a
// TTL. An armed cooldown suppresses repeated alerts for the same
// opportunity hash until the key expires.
type CooldownCache struct {
	rdb *redis.Client
}

// NewCooldownCache creates a CooldownCache backed by the given Client.
func NewCooldownCache(c *Client) *CooldownCache {
	return &CooldownCache{rdb: c.Underlying()}
}

func cooldownKey(key string) string {
	return "cooldown:" + key
}

// Acquire returns true when no cooldown is active for the key and arms one
// for the given duration. Returns false when a cooldown is already armed.
func (cc *CooldownCache) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := cc.rdb.SetNX(ctx, cooldownKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

// Compile-time interface check.
var _ domain.CooldownCache = (*CooldownCache)(nil)
