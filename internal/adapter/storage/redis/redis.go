package redis

import (
	"context"
	"fmt"
	"time"

	"swapgate/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// NewClient creates the shared Redis client and verifies connectivity
// before handing it out. Redis backs only fast paths here (event dedupe,
// rate limiting), so a failed ping aborts startup rather than limping on.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("Redis connection established")

	return client, nil
}
