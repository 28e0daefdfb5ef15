package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/source"
)

func TestNewFileSource(t *testing.T) {
	tests := map[string]struct {
		config source.FileSourceConfig
		expErr bool
	}{
		"A config with a path should create the source.": {
			config: source.FileSourceConfig{Path: "/bin/true"},
		},
		"A config without a path should fail.": {
			config: source.FileSourceConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			s, err := source.NewFileSource(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(s)
			} else {
				require.NoError(err)
				require.NotNil(s)
			}
		})
	}
}

func TestFileSourceFetch(t *testing.T) {
	content := []byte("#!/bin/sh\necho from-file\n")

	tests := map[string]struct {
		path   func(t *testing.T) string
		expErr bool
	}{
		"An existing file should be loaded fully in memory.": {
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "tool.sh")
				require.NoError(t, os.WriteFile(p, content, 0o755))
				return p
			},
		},
		"A missing file should fail.": {
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			expErr: true,
		},
		"An empty file should fail validation.": {
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "empty")
				require.NoError(t, os.WriteFile(p, nil, 0o644))
				return p
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			path := test.path(t)
			s, err := source.NewFileSource(source.FileSourceConfig{Path: path})
			require.NoError(err)

			artifact, err := s.Fetch(context.Background())

			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)

			assert.Equal(filepath.Base(path), artifact.Name)
			assert.Equal(content, artifact.Data)
			assert.Equal("file://"+path, artifact.Origin)
			assert.Equal(digest.FromBytes(content).String(), artifact.Digest)
			assert.Equal(int64(len(content)), artifact.SizeBytes)
		})
	}
}

func TestFileSourceFetchCanceledContext(t *testing.T) {
	require := require.New(t)

	s, err := source.NewFileSource(source.FileSourceConfig{Path: "/bin/true"})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Fetch(ctx)
	require.ErrorIs(err, context.Canceled)
}
