package historyrm

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/storage"
)

// ServiceConfig is the configuration for the history removal service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryRm"})
	return nil
}

// Service removes recorded runs from the history.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history removal service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the removal request parameters.
type Request struct {
	// ID is the run to remove.
	ID string
	// All removes every recorded run instead of a single one.
	All bool
}

// Run removes runs from the history and returns how many went away.
func (s *Service) Run(ctx context.Context, req Request) (int, error) {
	if req.All == (req.ID != "") {
		return 0, fmt.Errorf("exactly one of a run ID or all is required: %w", model.ErrNotValid)
	}

	if req.All {
		removed, err := s.repo.DeleteAllRuns(ctx)
		if err != nil {
			return 0, fmt.Errorf("could not delete runs: %w", err)
		}

		s.logger.Infof("Removed %d runs", removed)
		return removed, nil
	}

	err := s.repo.DeleteRun(ctx, req.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, fmt.Errorf("run not found: %s: %w", req.ID, model.ErrNotFound)
		}
		return 0, fmt.Errorf("could not delete run: %w", err)
	}

	s.logger.Infof("Removed run %s", req.ID)
	return 1, nil
}
