package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const urlCacheKeyPrefix = "asset-url"

// URLCache memoizes presigned asset URLs. Entries must expire before the
// presigned URL itself does, so callers pass a TTL shorter than the signature.
type URLCache struct {
	client *RedisClient
	bucket string
}

// NewURLCache returns a URLCache whose keys are scoped to bucket.
func NewURLCache(r *RedisClient, bucket string) *URLCache {
	return &URLCache{client: r, bucket: bucket}
}

// Get returns the cached URL for key. ok is false on a miss.
func (c *URLCache) Get(ctx context.Context, key string) (url string, ok bool, err error) {
	url, err = c.client.Client().Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("url cache get: %w", err)
	}
	return url, true, nil
}

// Set stores url under key for ttl.
func (c *URLCache) Set(ctx context.Context, key, url string, ttl time.Duration) error {
	if err := c.client.Client().Set(ctx, c.key(key), url, ttl).Err(); err != nil {
		return fmt.Errorf("url cache set: %w", err)
	}
	return nil
}

// Delete drops the cached URL for key, used when the object is purged.
func (c *URLCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Client().Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("url cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "asset-url:{bucket}:{objectKey}"
func (c *URLCache) key(objectKey string) string {
	return fmt.Sprintf("%s:%s:%s", urlCacheKeyPrefix, c.bucket, objectKey)
}
