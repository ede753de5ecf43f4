// Package storage persists small client-side records, such as auth state,
// by key. It is the terminal counterpart of browser local storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/howlrs/pos-qr-go/internal/config"
	"github.com/howlrs/pos-qr-go/internal/db"
)

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("storage: key not found")

// LocalStorage is a string key/value store
type LocalStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is a process-local LocalStorage
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements LocalStorage
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements LocalStorage
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Remove implements LocalStorage
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Open builds the LocalStorage selected by cfg. The returned close function
// releases the underlying connection.
func Open(ctx context.Context, cfg config.Storage) (LocalStorage, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), noop, nil

	case db.DriverSQLite, db.DriverPostgres:
		database, err := db.Open(ctx, db.Options{Driver: cfg.Driver, DSN: cfg.DSN})
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return NewSQL(database.DB), database.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client, cfg.RedisPrefix), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
