package model

import (
	"fmt"
	"time"
)

// RunStatus represents the final state of a recorded run.
type RunStatus string

const (
	// RunStatusCompleted indicates the program exited on its own.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusSignaled indicates the program was terminated by a signal.
	RunStatusSignaled RunStatus = "signaled"
	// RunStatusFailed indicates the program could not be spawned or executed.
	RunStatusFailed RunStatus = "failed"
)

// Run is the journal record of one in-memory execution.
type Run struct {
	ID string
	// Name is the argv[0] the program ran under.
	Name string
	Args []string
	// Origin describes where the image bytes came from (path, URL, image
	// reference, "stdin").
	Origin string
	// Digest is the hex SHA-256 of the image bytes.
	Digest    string
	SizeBytes int64
	PID       int
	Status    RunStatus
	// ExitCode is -1 when the run was signaled or failed.
	ExitCode int
	// Signal is the terminating signal number, 0 otherwise.
	Signal     int
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// Validate validates a run record.
func (r *Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}

	if r.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	switch r.Status {
	case RunStatusCompleted, RunStatusSignaled, RunStatusFailed:
	default:
		return fmt.Errorf("unknown run status %q: %w", r.Status, ErrNotValid)
	}

	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required: %w", ErrNotValid)
	}

	return nil
}
