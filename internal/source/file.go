package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// FileSourceConfig configures a local file source.
type FileSourceConfig struct {
	// Path is the file holding the executable bytes.
	Path string
	// Logger for logging.
	Logger log.Logger
}

func (c *FileSourceConfig) defaults() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "source.File"})

	return nil
}

// FileSource loads the executable bytes from a local file. The file is
// read once at fetch time; execution never touches it again.
type FileSource struct {
	path   string
	logger log.Logger
}

// NewFileSource creates a new local file source.
func NewFileSource(cfg FileSourceConfig) (*FileSource, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &FileSource{
		path:   cfg.Path,
		logger: cfg.Logger,
	}, nil
}

func (s *FileSource) Fetch(ctx context.Context) (*model.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", s.path, err)
	}

	abs, err := filepath.Abs(s.path)
	if err != nil {
		abs = s.path
	}

	s.logger.Debugf("loaded %d bytes from %s", len(data), s.path)

	artifact := &model.Artifact{
		Name:      filepath.Base(s.path),
		Data:      data,
		Origin:    "file://" + abs,
		Digest:    digest.FromBytes(data).String(),
		SizeBytes: int64(len(data)),
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	return artifact, nil
}
