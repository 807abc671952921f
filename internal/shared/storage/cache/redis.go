package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bill-assistant:transcript:"

// RedisTranscripts caches acquired document text by content digest.
type RedisTranscripts struct {
	client *redis.Client
	ttl    time.Duration
}

// Dial connects to addr and verifies the server answers a PING.
func Dial(ctx context.Context, addr, password string, ttl time.Duration) (*RedisTranscripts, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              password,
		ContextTimeoutEnabled: true,
		ReadTimeout:           3 * time.Second,
		WriteTimeout:          3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisTranscripts(client, ttl), nil
}

func NewRedisTranscripts(client *redis.Client, ttl time.Duration) *RedisTranscripts {
	return &RedisTranscripts{client: client, ttl: ttl}
}

// Get returns the cached transcript and whether one was present.
func (c *RedisTranscripts) Get(ctx context.Context, digest string) (string, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisTranscripts) Set(ctx context.Context, digest, text string) error {
	return c.client.Set(ctx, keyPrefix+digest, text, c.ttl).Err()
}

func (c *RedisTranscripts) Close() error {
	return c.client.Close()
}

func (c *RedisTranscripts) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
