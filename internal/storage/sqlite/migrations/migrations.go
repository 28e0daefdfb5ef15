package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/memrun/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrator applies the run history schema to a SQLite database.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator creates a new migrator over an already opened database.
func NewMigrator(db *sql.DB, logger log.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	return &Migrator{db: db, logger: logger}, nil
}

// Up brings the schema to the latest version. Running against an up to
// date database is a no-op.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(ctx, func(inst *migrate.Migrate) error { return inst.Up() })
	if err != nil {
		return fmt.Errorf("could not apply migrations: %w", err)
	}

	m.logger.Debugf("Run history schema is up to date")
	return nil
}

// Down removes the whole schema.
func (m *Migrator) Down(ctx context.Context) error {
	err := m.run(ctx, func(inst *migrate.Migrate) error { return inst.Down() })
	if err != nil {
		return fmt.Errorf("could not revert migrations: %w", err)
	}

	m.logger.Debugf("Run history schema reverted")
	return nil
}

// run assembles a migrate instance over the embedded SQL files and the
// live database handle, and executes a single migration operation on it.
// A no-change outcome is not an error.
func (m *Migrator) run(ctx context.Context, op func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return fmt.Errorf("could not load embedded migrations: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("Could not close migration source: %s", err)
		}
	}()

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create database driver: %w", err)
	}

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	err = op(inst)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
