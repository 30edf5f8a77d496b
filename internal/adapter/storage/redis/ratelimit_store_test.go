package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_AllowWithinLimit(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Allow(ctx, "10.0.0.2", 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "10.0.0.2", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimitStore_KeysIsolated(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	_, err := store.Allow(ctx, "10.0.0.3", 1, time.Minute)
	require.NoError(t, err)
	blocked, err := store.Allow(ctx, "10.0.0.3", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := store.Allow(ctx, "10.0.0.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}
