package source

import (
	"context"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// ReaderSourceConfig configures a stream source.
type ReaderSourceConfig struct {
	// Reader is the stream holding the executable bytes, usually stdin.
	Reader io.Reader
	// Name is the display name of the artifact.
	Name string
	// Logger for logging.
	Logger log.Logger
}

func (c *ReaderSourceConfig) defaults() error {
	if c.Reader == nil {
		return fmt.Errorf("reader is required")
	}
	if c.Name == "" {
		c.Name = "stdin"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "source.Reader"})

	return nil
}

// ReaderSource drains an arbitrary stream into the executable artifact.
// The reader is consumed exactly once.
type ReaderSource struct {
	reader io.Reader
	name   string
	logger log.Logger
}

// NewReaderSource creates a new stream source.
func NewReaderSource(cfg ReaderSourceConfig) (*ReaderSource, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ReaderSource{
		reader: cfg.Reader,
		name:   cfg.Name,
		logger: cfg.Logger,
	}, nil
}

func (s *ReaderSource) Fetch(ctx context.Context) (*model.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(s.reader)
	if err != nil {
		return nil, fmt.Errorf("could not read stream: %w", err)
	}

	s.logger.Debugf("drained %d bytes from %s", len(data), s.name)

	artifact := &model.Artifact{
		Name:      s.name,
		Data:      data,
		Origin:    s.name,
		Digest:    digest.FromBytes(data).String(),
		SizeBytes: int64(len(data)),
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	return artifact, nil
}
