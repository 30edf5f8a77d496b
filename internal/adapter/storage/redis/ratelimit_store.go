package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements fixed-window rate limit counters backed by
// Redis, used to shield the webhook and checkout endpoints.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration // zero when allowed
}

// Allow checks whether one more request under key fits in the current
// fixed window: INCR plus EXPIRE on the first hit of each window.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	windowID := now.Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second) // +1s safety margin
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	result := &RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
	}
	if !result.Allowed {
		windowEnd := time.Unix((windowID+1)*int64(window.Seconds()), 0)
		result.RetryAfter = windowEnd.Sub(now)
	}
	return result, nil
}
