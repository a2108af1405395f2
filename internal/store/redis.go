package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/safety-report/internal/takeaway"
)

// DefaultRedisPrefix namespaces takeaway keys.
const DefaultRedisPrefix = "takeaway:"

// Redis stores takeaways as JSON strings. Keys are written without a Redis
// expiry; freshness is decided by the reader from ExpiresAt.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to a redis:// URL and pings it.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	if url == "" {
		return nil, fmt.Errorf("redis: url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Get returns the entry for key or takeaway.ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (*takeaway.Takeaway, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, takeaway.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get takeaway: %w", err)
	}

	var t takeaway.Takeaway
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("redis: decode takeaway: %w", err)
	}
	if t.Positive == nil {
		t.Positive = []string{}
	}
	if t.Negative == nil {
		t.Negative = []string{}
	}
	return &t, nil
}

// Put replaces the entry for key.
func (r *Redis) Put(ctx context.Context, key string, t *takeaway.Takeaway) error {
	if err := validatePut(key, t); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("redis: encode takeaway: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set takeaway: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
