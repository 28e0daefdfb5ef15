package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/opencontainers/go-digest"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// HTTPSourceConfig configures an HTTP download source.
type HTTPSourceConfig struct {
	// URL is the address of the executable bytes.
	URL string
	// HTTPClient is the client used for the download.
	HTTPClient *http.Client
	// ProgressOutput receives a live progress bar while downloading. Nil
	// disables progress.
	ProgressOutput io.Writer
	// Logger for logging.
	Logger log.Logger
}

func (c *HTTPSourceConfig) defaults() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "source.HTTP"})

	return nil
}

// HTTPSource downloads the executable bytes over HTTP. The payload stays
// in memory for its whole life, nothing is written to disk.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	progress   io.Writer
	logger     log.Logger
}

// NewHTTPSource creates a new HTTP source.
func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPSource{
		url:        cfg.URL,
		httpClient: cfg.HTTPClient,
		progress:   cfg.ProgressOutput,
		logger:     cfg.Logger,
	}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context) (*model.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.url)
	}

	var reader io.Reader = resp.Body
	if s.progress != nil {
		pr := newProgressReader(resp.Body, s.progress, resp.ContentLength)
		defer pr.finish()
		reader = pr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", s.url, err)
	}

	s.logger.Debugf("downloaded %d bytes from %s", len(data), s.url)

	artifact := &model.Artifact{
		Name:      artifactNameFromURL(s.url),
		Data:      data,
		Origin:    s.url,
		Digest:    digest.FromBytes(data).String(),
		SizeBytes: int64(len(data)),
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	return artifact, nil
}

// artifactNameFromURL derives a display name from the last URL path
// element, falling back to the host when the path has none.
func artifactNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "download"
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		if u.Host != "" {
			return u.Host
		}
		return "download"
	}

	return name
}
