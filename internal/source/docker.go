package source

import (
	"archive/tar"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/oklog/ulid/v2"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
)

// DockerClient is the interface for the Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	CopyFromContainer(ctx context.Context, containerID, srcPath string) (io.ReadCloser, container.PathStat, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// ImageSourceConfig configures an OCI image source.
type ImageSourceConfig struct {
	// Ref is the image reference (e.g. "alpine:3.20").
	Ref string
	// Path is the file inside the image holding the executable bytes.
	Path string
	// Client is the Docker client used to reach the daemon.
	Client DockerClient
	// Logger for logging.
	Logger log.Logger
}

func (c *ImageSourceConfig) defaults() error {
	if c.Ref == "" {
		return fmt.Errorf("image reference is required")
	}
	if c.Path == "" {
		return fmt.Errorf("path inside the image is required")
	}
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "source.Image"})

	return nil
}

// ImageSource extracts a single file out of an OCI image through the
// Docker daemon. The container it creates never starts; it exists only
// so the daemon can serve the file, and is removed before Fetch returns.
type ImageSource struct {
	ref    string
	path   string
	client DockerClient
	logger log.Logger
}

// NewImageSource creates a new OCI image source.
func NewImageSource(cfg ImageSourceConfig) (*ImageSource, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ImageSource{
		ref:    cfg.Ref,
		path:   cfg.Path,
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

func (s *ImageSource) Fetch(ctx context.Context) (*model.Artifact, error) {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	name := fmt.Sprintf("memrun-fetch-%s", strings.ToLower(id))

	s.logger.Infof("[1/2] Creating container from image: %s", s.ref)
	cfg := &container.Config{
		Image: s.ref,
		// Never started, but images without a default command still need one
		// at create time.
		Cmd: []string{s.path},
	}

	created, err := s.client.ContainerCreate(ctx, cfg, nil, nil, nil, name)
	if err != nil {
		// The image is likely missing locally: pull and retry once.
		s.logger.Infof("Pulling image: %s", s.ref)
		rc, perr := s.client.ImagePull(ctx, s.ref, image.PullOptions{})
		if perr != nil {
			return nil, fmt.Errorf("could not pull image %s: %w", s.ref, perr)
		}
		_, _ = io.Copy(io.Discard, rc)
		rc.Close()

		created, err = s.client.ContainerCreate(ctx, cfg, nil, nil, nil, name)
		if err != nil {
			return nil, fmt.Errorf("could not create container from %s: %w", s.ref, err)
		}
	}
	defer func() {
		if err := s.client.ContainerRemove(context.WithoutCancel(ctx), created.ID, container.RemoveOptions{Force: true}); err != nil {
			s.logger.Warningf("could not remove container %s: %s", name, err)
		}
	}()

	s.logger.Infof("[2/2] Extracting: %s", s.path)
	rc, stat, err := s.client.CopyFromContainer(ctx, created.ID, s.path)
	if err != nil {
		return nil, fmt.Errorf("could not copy %s from container: %w", s.path, err)
	}
	defer rc.Close()

	if stat.Mode.IsDir() {
		return nil, fmt.Errorf("path %s is a directory", s.path)
	}

	data, err := extractFileFromTar(rc, filepath.Base(s.path))
	if err != nil {
		return nil, err
	}

	artifact := &model.Artifact{
		Name:      filepath.Base(s.path),
		Data:      data,
		Origin:    fmt.Sprintf("oci://%s#%s", s.ref, s.path),
		Digest:    digest.FromBytes(data).String(),
		SizeBytes: int64(len(data)),
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	return artifact, nil
}

// extractFileFromTar finds the regular file called name in a copy stream
// and returns its content.
func extractFileFromTar(r io.Reader, name string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("file %q not found in copy stream", name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading copy stream: %w", err)
		}

		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != name {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading %q from copy stream: %w", name, err)
		}
		return data, nil
	}
}
