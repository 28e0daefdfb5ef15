package storage

import (
	"context"

	"github.com/slok/memrun/internal/model"
)

// Repository is the interface for run history persistence.
type Repository interface {
	CreateRun(ctx context.Context, r model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	DeleteRun(ctx context.Context, id string) error
	// DeleteAllRuns removes every run and returns how many were removed.
	DeleteAllRuns(ctx context.Context) (int, error)
}
