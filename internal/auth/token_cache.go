package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// TokenCache stores access tokens between program runs.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, accessToken string, ttl time.Duration) error
}

// RedisTokenCache keeps tokens in Redis with the token lifetime as TTL.
type RedisTokenCache struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenCache constructs a cache; prefix defaults to "ccsamples:token".
func NewRedisTokenCache(client *redis.Client, prefix string) *RedisTokenCache {
	if prefix == "" {
		prefix = "ccsamples:token"
	}
	return &RedisTokenCache{client: client, prefix: prefix}
}

// Get returns the cached token for key, if present.
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("token cache: get: %w", err)
	}
	return val, true, nil
}

// Set stores the token until ttl elapses.
func (c *RedisTokenCache) Set(ctx context.Context, key, accessToken string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), accessToken, ttl).Err(); err != nil {
		return fmt.Errorf("token cache: set: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

