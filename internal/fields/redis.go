package fields

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// CacheKey is the Redis key holding the JSON-encoded dictionary.
const CacheKey = "fields:dictionary"

// ConnectRedis parses url, connects and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisCache stores the dictionary in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl keeps the entry until the
// next Set.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: CacheKey, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context) ([]models.Field, bool, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fields, err := decode(val)
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, fields []models.Field) error {
	data, err := encode(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

func encode(fields []models.Field) ([]byte, error) {
	if fields == nil {
		fields = []models.Field{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("fields: failed to marshal: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]models.Field, error) {
	var fields []models.Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("fields: failed to unmarshal: %w", err)
	}
	return fields, nil
}
