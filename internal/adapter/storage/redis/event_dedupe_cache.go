package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDedupeCache implements ports.EventDedupeCache using Redis. It is
// the fast path for webhook event ids; the database unique key remains
// the durable guard, so cache misses and Redis outages fail open.
type EventDedupeCache struct {
	client *goredis.Client
	prefix string
}

// NewEventDedupeCache creates a new Redis-backed event dedupe cache.
func NewEventDedupeCache(client *goredis.Client) *EventDedupeCache {
	return &EventDedupeCache{
		client: client,
		prefix: "webhook:event:",
	}
}

// Seen reports whether the event id was marked within its TTL.
func (c *EventDedupeCache) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis event dedupe exists: %w", err)
	}
	return n == 1, nil
}

// Mark records the event id with a TTL.
func (c *EventDedupeCache) Mark(ctx context.Context, eventID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+eventID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis event dedupe set: %w", err)
	}
	return nil
}
