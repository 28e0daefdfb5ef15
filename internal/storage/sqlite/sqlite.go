package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun records a new run in the journal.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	args := run.Args
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("could not encode args: %w", err)
	}

	var finishedAt *int64
	if run.FinishedAt != nil {
		u := run.FinishedAt.Unix()
		finishedAt = &u
	}

	query := `
		INSERT INTO runs (
			id, name, args,
			origin, digest, size_bytes,
			pid, status, exit_code, signal,
			created_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Name,
		string(argsJSON),
		run.Origin,
		run.Digest,
		run.SizeBytes,
		run.PID,
		run.Status,
		run.ExitCode,
		run.Signal,
		run.CreatedAt.Unix(),
		finishedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Recorded run in repository: %s", run.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
		SELECT
			id, name, args,
			origin, digest, size_bytes,
			pid, status, exit_code, signal,
			created_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := r.scanOne(ctx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	return run, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.Run, error) {
	query := `
		SELECT
			id, name, args,
			origin, digest, size_bytes,
			pid, status, exit_code, signal,
			created_at, finished_at
		FROM runs
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run.
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted run from repository: %s", id)
	return nil
}

// DeleteAllRuns deletes every run and returns how many were removed.
func (r *Repository) DeleteAllRuns(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("could not delete runs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}

	r.logger.Debugf("Deleted %d runs from repository", rows)
	return int(rows), nil
}

func (r *Repository) scanOne(ctx context.Context, query string, arg any) (*model.Run, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	run, err := r.scanRow(row)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.Run, error) {
	var run model.Run
	var argsJSON string
	var createdAt, finishedAt sql.NullInt64

	err := s.Scan(
		&run.ID,
		&run.Name,
		&argsJSON,
		&run.Origin,
		&run.Digest,
		&run.SizeBytes,
		&run.PID,
		&run.Status,
		&run.ExitCode,
		&run.Signal,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return model.Run{}, err
	}

	if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
		return model.Run{}, fmt.Errorf("could not decode args: %w", err)
	}

	if err := r.setTimestamps(&run, createdAt, finishedAt); err != nil {
		return model.Run{}, err
	}

	return run, nil
}

func (r *Repository) setTimestamps(run *model.Run, createdAt, finishedAt sql.NullInt64) error {
	if !createdAt.Valid {
		return fmt.Errorf("created_at is required")
	}
	run.CreatedAt = timeFromUnix(createdAt.Int64)

	if finishedAt.Valid {
		t := timeFromUnix(finishedAt.Int64)
		run.FinishedAt = &t
	}

	return nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
