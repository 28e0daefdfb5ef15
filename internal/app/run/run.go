package run

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/runner"
	"github.com/slok/memrun/internal/source"
	"github.com/slok/memrun/internal/storage"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Runner     runner.Runner
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service handles the fetch, execute and record business logic.
type Service struct {
	runner runner.Runner
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		runner: cfg.Runner,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the run request parameters.
type Request struct {
	// Source provides the program bytes to execute.
	Source source.Source
	// Spec configures how the program runs.
	Spec model.RunSpec
	// NoRecord skips writing the run to the history.
	NoRecord bool
}

// Response is the outcome of a run request.
type Response struct {
	Result *model.RunResult
	// Run is the recorded history entry, nil when recording was skipped.
	Run *model.Run
}

// Run fetches the program, executes it from memory and records the
// outcome.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	// 1. Validate request.
	if req.Source == nil {
		return nil, fmt.Errorf("source is required: %w", model.ErrNotValid)
	}
	if err := req.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run spec: %w", err)
	}

	// 2. Fetch the program bytes.
	s.logger.Infof("[1/2] Fetching program")
	artifact, err := req.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch program: %w", err)
	}

	// 3. Execute from memory.
	s.logger.Infof("[2/2] Executing %q (%d bytes)", artifact.Name, artifact.SizeBytes)
	start := time.Now().UTC()
	result, runErr := s.runner.Run(ctx, req.Spec, *artifact)

	// 4. Record the outcome. The program already ran (or failed to), so
	// recording survives context cancellation and its own failures only
	// get logged.
	var rec *model.Run
	if !req.NoRecord {
		rec = buildRun(req.Spec, artifact, result, start)
		if err := s.repo.CreateRun(context.WithoutCancel(ctx), *rec); err != nil {
			s.logger.Warningf("Could not record run %s: %v", rec.ID, err)
		}
	}

	if runErr != nil {
		return nil, fmt.Errorf("could not execute program: %w", runErr)
	}

	if result.Signal != 0 {
		s.logger.Infof("Program killed by signal %d", result.Signal)
	} else {
		s.logger.Infof("Program exited with code %d", result.ExitCode)
	}

	return &Response{Result: result, Run: rec}, nil
}

// buildRun assembles the history record for an execution. A nil result
// means the program never ran.
func buildRun(spec model.RunSpec, artifact *model.Artifact, result *model.RunResult, start time.Time) *model.Run {
	name := spec.Name
	if name == "" {
		name = artifact.Name
	}

	r := &model.Run{
		ID:        ulid.Make().String(),
		Name:      name,
		Args:      spec.Args,
		Origin:    artifact.Origin,
		Digest:    artifact.Digest,
		SizeBytes: artifact.SizeBytes,
		Status:    model.RunStatusFailed,
		ExitCode:  -1,
		CreatedAt: start,
	}

	if result != nil {
		finished := start.Add(result.Duration)
		r.PID = result.PID
		r.ExitCode = result.ExitCode
		r.Signal = result.Signal
		r.FinishedAt = &finished
		if result.Signal != 0 {
			r.Status = model.RunStatusSignaled
		} else {
			r.Status = model.RunStatusCompleted
		}
	}

	return r
}
