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

func TestEventDedupeCache_MarkAndSeen(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewEventDedupeCache(client)
	ctx := context.Background()

	seen, err := cache.Seen(ctx, "evt-1")
	assert.NoError(t, err)
	assert.False(t, seen)

	err = cache.Mark(ctx, "evt-1", 24*time.Hour)
	require.NoError(t, err)

	seen, err = cache.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Different event id stays unseen
	seen, err = cache.Seen(ctx, "evt-2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestEventDedupeCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewEventDedupeCache(client)
	ctx := context.Background()

	err := cache.Mark(ctx, "evt-short", 1*time.Second)
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	seen, err := cache.Seen(ctx, "evt-short")
	assert.NoError(t, err)
	assert.False(t, seen, "expired event id should be unseen again")
}
