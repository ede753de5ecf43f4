package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a LocalStorage shared between terminals through a Redis server
type Redis struct {
	Client *redis.Client
	Prefix string
}

// NewRedis creates a Redis store that namespaces keys with prefix
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{Client: client, Prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.Prefix + k
}

// Get implements LocalStorage
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Set implements LocalStorage. Values do not expire; auth state carries its
// own token expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.Client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove implements LocalStorage
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
