package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis is a CacheStore backed by Redis. Each key holds the JSON-encoded
// entry including its logical expiry; the Redis TTL only bounds retention.
type Redis struct {
	client *redis.Client
}

// NewRedis parses a redis:// URL and returns a store using it.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (r *Redis) Set(ctx context.Context, entry domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", entry.Key, err)
	}
	if err := r.client.Set(ctx, entry.Key, data, retention(entry.ExpiresAt)).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", entry.Key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// retention keeps a key one TTL past its logical expiry so a stale read
// still sees the entry and ignores it, rather than missing outright.
func retention(expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(domain.Now()) + domain.CacheTTL
	if d < time.Second {
		return time.Second
	}
	return d
}
