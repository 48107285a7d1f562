// Package cache holds the Redis-backed read models: the note read-through
// cache used by the API and worker, and the presigned asset URL cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName  = "notekeeper"
	pingTimeout = 2 * time.Second
)

// RedisClient is the shared Redis connection pool.
type RedisClient struct {
	client *redis.Client
}

// ParseRedisURL parses a redis:// or rediss:// URL and applies the pool
// and timeout settings every notekeeper process uses.
func ParseRedisURL(redisURL string) (*redis.Options, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = clientName
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second
	return opts, nil
}

// NewRedisClient connects to redisURL and fails if the server does not
// answer a ping within two seconds.
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}

	rc := &RedisClient{client: redis.NewClient(opts)}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.client.Close()
		return nil, err
	}
	return rc, nil
}

// Ping reports whether Redis answers.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the pool. It is a no-op on a zero RedisClient.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

// Client exposes the go-redis client for stores that need raw commands.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
