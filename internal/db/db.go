// Package db opens the SQL database that backs persisted client state and
// applies its embedded migrations.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open
type Options struct {
	Driver string
	DSN    string
	// MaxRetries bounds connection attempts; zero means 5
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between attempts
	RetryBackoff time.Duration
	Logger       log.FieldLogger
}

// DB wraps the sqlx handle together with its driver name
type DB struct {
	DB     *sqlx.DB
	Driver string
}

// Open connects with retries, which helps when the database starts alongside
// the client, then configures the pool for the driver.
func Open(ctx context.Context, opts Options) (*DB, error) {
	driver := strings.ToLower(opts.Driver)
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%s: empty DSN", driver)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	var db *sqlx.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, driver, opts.DSN)
		if err == nil {
			break
		}
		logger.WithError(err).Warnf("Failed to connect to database (attempt %d/%d)", i+1, maxRetries)
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(time.Duration(i+1) * backoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps in-memory databases shared and avoids
		// SQLITE_BUSY between writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return &DB{DB: db, Driver: driver}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.DB.Close()
}

// HealthCheck performs a database health check
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}
