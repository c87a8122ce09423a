// Package cache provides a Redis-backed response cache for the portal client.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "grievance:"

// Redis caches raw response bodies in Redis
type Redis struct {
	rdb    *goredis.Client
	logger *zap.SugaredLogger
}

// NewRedis connects to the Redis instance at redisURL and pings it
func NewRedis(redisURL string, logger *zap.SugaredLogger) (*Redis, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Infow("Redis connected", "addr", opts.Addr, "db", opts.DB)
	return &Redis{rdb: rdb, logger: logger}, nil
}

// Get returns the cached value for key. A miss is not an error.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key for ttl; a non-positive ttl skips the write
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, keyPrefix+key, value, ttl).Err()
}

// Ping checks connectivity, used by the readiness probe
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Redis) Close() error {
	return c.rdb.Close()
}
