package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

func clientOptions(cfg *config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return opts
}

// NewRedisClient connects and pings redis. The client backs the key cache,
// session denylist and rate limiter.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Named("Redis").Info("Connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
