package db

import (
	"context"
	"time"

	"backend-hikinghelper/internal/config"
	"backend-hikinghelper/internal/logging"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when no address is configured. An unreachable
// server is logged but the client is still returned; callers treat Redis as
// a best-effort cache.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	return client
}
