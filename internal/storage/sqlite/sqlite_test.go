package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/storage/sqlite"
)

func runFixture(id string, createdAt time.Time) model.Run {
	finishedAt := createdAt.Add(2 * time.Second)
	return model.Run{
		ID:         id,
		Name:       "tool",
		Args:       []string{"-v", "--color"},
		Origin:     "file:///usr/local/bin/tool",
		Digest:     "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		SizeBytes:  12345,
		PID:        4242,
		Status:     model.RunStatusCompleted,
		ExitCode:   0,
		CreatedAt:  createdAt,
		FinishedAt: &finishedAt,
	}
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := runFixture("run-1", now)
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "tool", got.Name)
	assert.Equal(t, []string{"-v", "--color"}, got.Args)
	assert.Equal(t, "file:///usr/local/bin/tool", got.Origin)
	assert.Equal(t, run.Digest, got.Digest)
	assert.Equal(t, int64(12345), got.SizeBytes)
	assert.Equal(t, 4242, got.PID)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 0, got.ExitCode)
	assert.Equal(t, now, got.CreatedAt)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, now.Add(2*time.Second), *got.FinishedAt)

	all, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteRun(ctx, "run-1"))
	_, err = repo.GetRun(ctx, "run-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRepositoryConstraints(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := runFixture("run-1", now)
	require.NoError(t, repo.CreateRun(ctx, run))

	dupID := runFixture("run-1", now)
	err := repo.CreateRun(ctx, dupID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	invalid := runFixture("", now)
	err = repo.CreateRun(ctx, invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotValid))

	_, err = repo.GetRun(ctx, "run-x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	err = repo.DeleteRun(ctx, "run-x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRepositorySignaledRun(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := runFixture("run-1", now)
	run.Status = model.RunStatusSignaled
	run.ExitCode = -1
	run.Signal = 9
	run.FinishedAt = nil
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSignaled, got.Status)
	assert.Equal(t, -1, got.ExitCode)
	assert.Equal(t, 9, got.Signal)
	assert.Nil(t, got.FinishedAt)
}

func TestRepositoryListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-a", now.Add(-2*time.Second))))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-b", now.Add(-1*time.Second))))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-c", now)))
	// Same second as run-c, the ID breaks the tie.
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-d", now)))

	all, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"run-d", "run-c", "run-b", "run-a"}, ids)
}

func TestRepositoryDeleteAllRuns(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-a", now)))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-b", now)))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-c", now)))

	deleted, err := repo.DeleteAllRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	all, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	deleted, err = repo.DeleteAllRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestRepositoryNilArgsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := runFixture("run-1", now)
	run.Args = nil
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Args)
}
