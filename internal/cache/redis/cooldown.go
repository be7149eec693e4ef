package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown implements domain.CooldownStore on Redis so that multiple scanner
// processes share one cooldown window per opportunity key. TTL handling is
// delegated to Redis key expiry.
type Cooldown struct {
	rdb    *redis.Client
	prefix string
}

// NewCooldown creates a Cooldown using the given client. Keys are namespaced
// under "crossarb:cooldown:".
func NewCooldown(client *Client) *Cooldown {
	return &Cooldown{rdb: client.Underlying(), prefix: "crossarb:cooldown:"}
}

// InCooldown reports whether key was marked and has not expired.
func (c *Cooldown) InCooldown(ctx context.Context, key string) (bool, error) {
	err := c.rdb.Get(ctx, c.prefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: cooldown get: %w", err)
	}
	return true, nil
}

// Mark records key with the given expiry.
func (c *Cooldown) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.prefix+key, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis: cooldown set: %w", err)
	}
	return nil
}
