package db

import (
	"context"
	"crypto/tls"
	"fmt"

	"crm_sync_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to the Redis instance shared with the job queue.
func NewRedis(ctx context.Context, cfg config.SchedulerConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisAdapter exposes a Redis client as a health checker.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter wraps client.
func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// Ping checks the Redis connection.
func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}
