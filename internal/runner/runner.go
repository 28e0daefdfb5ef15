package runner

import (
	"context"

	"github.com/slok/memrun/internal/model"
)

// Runner is the interface for executing fetched artifacts.
type Runner interface {
	// Run spawns the artifact according to the run spec, supervises it
	// until it ends and returns the outcome. Cancelling the context kills
	// the program; a kill is reported as a signaled result, not as an error.
	Run(ctx context.Context, spec model.RunSpec, artifact model.Artifact) (*model.RunResult, error)
}
