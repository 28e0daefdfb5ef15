package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// RunnerConfig is the configuration for the fake runner.
type RunnerConfig struct {
	// ExitCode is the exit code every simulated run reports.
	ExitCode int
	// Stdout and Stderr are returned as captured bytes when the run spec
	// asks for capture.
	Stdout []byte
	Stderr []byte
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "runner.Fake"})

	return nil
}

// Runner is a fake implementation of the runner.Runner interface.
// It simulates execution without spawning real processes.
type Runner struct {
	exitCode int
	stdout   []byte
	stderr   []byte
	logger   log.Logger

	mu      sync.Mutex
	nextPID int
}

// NewRunner creates a new fake runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		exitCode: cfg.ExitCode,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		logger:   cfg.Logger,
		nextPID:  1000,
	}, nil
}

// Run simulates executing the artifact and returns the canned outcome.
func (r *Runner) Run(ctx context.Context, spec model.RunSpec, artifact model.Artifact) (*model.RunResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run spec: %w", err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	pid := r.nextPID
	r.nextPID++
	r.mu.Unlock()

	r.logger.Infof("Simulated run of %q (%d bytes) as pid %d", artifact.Name, len(artifact.Data), pid)

	res := &model.RunResult{
		PID:      pid,
		ExitCode: r.exitCode,
		Duration: time.Millisecond,
	}
	if spec.Stdout.Mode == model.StreamCapture {
		res.Stdout = r.stdout
	}
	if spec.Stderr.Mode == model.StreamCapture {
		res.Stderr = r.stderr
	}

	return res, nil
}
