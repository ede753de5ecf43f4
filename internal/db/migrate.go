package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded migrations for the driver
func (d *DB) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrations, "migrations/"+d.Driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var target database.Driver
	// closeTarget releases only what the migration driver owns. The shared
	// *sql.DB stays open for the caller.
	closeTarget := func() error { return nil }

	switch d.Driver {
	case DriverSQLite:
		target, err = sqlite.WithInstance(d.DB.DB, &sqlite.Config{})
	case DriverPostgres:
		conn, cerr := d.DB.Conn(ctx)
		if cerr != nil {
			src.Close()
			return fmt.Errorf("failed to get migration connection: %w", cerr)
		}
		target, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		closeTarget = conn.Close
	default:
		err = fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	if err != nil {
		src.Close()
		closeTarget()
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer closeTarget()
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, d.Driver, target)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
