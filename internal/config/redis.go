package config

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns nil, nil when no REDIS_URL is configured; callers
// treat a nil client as "no cache".
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
