// Package cache is the read-through catalog cache: JSON values in Redis
// under a "cakeworld:" namespace. With no client installed every read is a
// miss and every write a no-op, so the server runs without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const namespace = "cakeworld:"

var (
	mu     sync.RWMutex
	client *redis.Client
)

func current() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// Connect dials REDIS_ADDR and installs the client if it answers a ping.
func Connect(ctx context.Context) error {
	c := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		Use(nil)
		return fmt.Errorf("cache: redis %s: %w", config.RedisAddr(), err)
	}
	Use(c)
	return nil
}

// Use installs c; nil disables the cache.
func Use(c *redis.Client) {
	mu.Lock()
	client = c
	mu.Unlock()
}

// Get decodes the value at key into dest and reports a hit. Redis errors and
// undecodable values count as misses.
func Get(ctx context.Context, key string, dest interface{}) bool {
	c := current()
	if c == nil {
		return false
	}
	raw, err := c.Get(ctx, namespace+key).Bytes()
	if err == nil {
		err = json.Unmarshal(raw, dest)
	}
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithCtx(ctx).Debug("cache: read failed", "key", key, "error", err)
		}
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c := current()
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return c.Set(ctx, namespace+key, raw, ttl).Err()
}

// ForgetPrefix removes every key under prefix.
func ForgetPrefix(ctx context.Context, prefix string) error {
	c := current()
	if c == nil {
		return nil
	}
	iter := c.Scan(ctx, 0, namespace+prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: scan %s: %w", prefix, err)
	}
	if len(batch) == 0 {
		return nil
	}
	return c.Del(ctx, batch...).Err()
}

// Remember returns the cached value at key, or loads, stores and returns it.
// Load errors are returned and never cached.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	if Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := Set(ctx, key, v, ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: write failed", "key", key, "error", err)
	}
	return v, nil
}
