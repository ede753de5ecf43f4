package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	selectValueQuery = `SELECT value FROM local_storage WHERE storage_key = ?`
	upsertValueQuery = `INSERT INTO local_storage (storage_key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (storage_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteValueQuery = `DELETE FROM local_storage WHERE storage_key = ?`
)

// SQL is a LocalStorage over the local_storage table. Queries are rebound for
// the handle's driver, so it runs on SQLite and Postgres alike.
type SQL struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQL creates a SQL store on an already migrated database
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

// Get implements LocalStorage
func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(selectValueQuery), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set implements LocalStorage
func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertValueQuery), key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove implements LocalStorage
func (s *SQL) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(deleteValueQuery), key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
