package extract

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"pricewatch/internal/core"
)

// Cache stores a serialized extract so repeated rebuilds within the TTL skip
// the database roundtrip entirely.
type Cache interface {
	Get(ctx context.Context, key string) ([]core.InvoiceLine, bool, error)
	Set(ctx context.Context, key string, lines []core.InvoiceLine, ttl time.Duration) error
}

// RedisExtractCache keeps the extract payload as a JSON blob in Redis.
type RedisExtractCache struct {
	client *redis.Client
}

func NewRedisExtractCache(addr string, password string, db int) *RedisExtractCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisExtractCache{client: client}
}

func (c *RedisExtractCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisExtractCache) Close() error {
	return c.client.Close()
}

func (c *RedisExtractCache) Get(ctx context.Context, key string) ([]core.InvoiceLine, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var lines []core.InvoiceLine
	if err := json.Unmarshal([]byte(val), &lines); err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

func (c *RedisExtractCache) Set(ctx context.Context, key string, lines []core.InvoiceLine, ttl time.Duration) error {
	if lines == nil {
		return nil
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// NoopCache satisfies Cache without storing anything. Used when Redis is not
// configured.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]core.InvoiceLine, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, lines []core.InvoiceLine, ttl time.Duration) error {
	return nil
}
