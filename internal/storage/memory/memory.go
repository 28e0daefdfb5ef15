package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	runs   map[string]model.Run
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   make(map[string]model.Run),
		logger: cfg.Logger,
	}, nil
}

// CreateRun records a new run in the repository.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run with id %s: %w", run.ID, model.ErrAlreadyExists)
	}

	r.runs[run.ID] = run
	r.logger.Debugf("Recorded run in repository: %s", run.ID)

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	runCopy := run
	return &runCopy, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})

	return runs, nil
}

// DeleteRun deletes a run.
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	delete(r.runs, id)
	r.logger.Debugf("Deleted run from repository: %s", id)

	return nil
}

// DeleteAllRuns deletes every run and returns how many were removed.
func (r *Repository) DeleteAllRuns(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.runs)
	r.runs = make(map[string]model.Run)
	r.logger.Debugf("Deleted %d runs from repository", count)

	return count, nil
}
