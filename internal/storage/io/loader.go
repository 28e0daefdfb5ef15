package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/memrun/internal/model"
)

// ProfileYAMLRepository loads run profiles from YAML files.
type ProfileYAMLRepository struct {
	fs fs.FS
}

// NewProfileYAMLRepository creates a new YAML profile repository.
func NewProfileYAMLRepository(filesystem fs.FS) *ProfileYAMLRepository {
	return &ProfileYAMLRepository{fs: filesystem}
}

// GetProfile loads a run profile from a YAML file and returns a validated domain model.
func (r *ProfileYAMLRepository) GetProfile(ctx context.Context, path string) (model.Profile, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Profile{}, fmt.Errorf("reading profile file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Profile{}, ctx.Err()
	}

	var profile RunProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return model.Profile{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := profile.validate(); err != nil {
		return model.Profile{}, fmt.Errorf("invalid profile: %w", err)
	}

	m := profile.toModel()
	if err := m.Validate(); err != nil {
		return model.Profile{}, fmt.Errorf("invalid profile: %w", err)
	}

	return m, nil
}

// RunProfile represents the YAML structure for a run profile.
type RunProfile struct {
	Name      string            `yaml:"name"`
	Source    SourceConfig      `yaml:"source"`
	Argv0     string            `yaml:"argv0"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	NoHostEnv bool              `yaml:"no_host_env"`
	WorkDir   string            `yaml:"workdir"`
	Stdio     StdioConfig       `yaml:"stdio"`
	TTY       bool              `yaml:"tty"`
	Timeout   string            `yaml:"timeout"`
}

// SourceConfig represents the YAML structure for the executable source.
type SourceConfig struct {
	File  string             `yaml:"file,omitempty"`
	URL   string             `yaml:"url,omitempty"`
	Image *ImageSourceConfig `yaml:"image,omitempty"`
	Stdin bool               `yaml:"stdin,omitempty"`
}

// ImageSourceConfig represents the YAML structure for an OCI image source.
type ImageSourceConfig struct {
	Ref  string `yaml:"ref"`
	Path string `yaml:"path"`
}

// StdioConfig represents the YAML structure for standard stream wiring.
// Each stream is one of inherit, null, capture or file:PATH. Empty means
// inherit.
type StdioConfig struct {
	Stdin  string `yaml:"stdin"`
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`
}

func (c RunProfile) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Ensure exactly one source is specified
	sourceCount := 0
	if c.Source.File != "" {
		sourceCount++
	}
	if c.Source.URL != "" {
		sourceCount++
	}
	if c.Source.Image != nil {
		sourceCount++
	}
	if c.Source.Stdin {
		sourceCount++
	}
	if sourceCount == 0 {
		return fmt.Errorf("exactly one source must be specified (file, url, image or stdin)")
	}
	if sourceCount > 1 {
		return fmt.Errorf("only one source can be specified at a time")
	}

	if c.Source.Image != nil {
		if c.Source.Image.Ref == "" {
			return fmt.Errorf("image source ref is required")
		}
		if c.Source.Image.Path == "" {
			return fmt.Errorf("image source path is required")
		}
	}

	for stream, value := range map[string]string{
		"stdin":  c.Stdio.Stdin,
		"stdout": c.Stdio.Stdout,
		"stderr": c.Stdio.Stderr,
	} {
		if _, err := model.ParseStreamSpec(value); err != nil {
			return fmt.Errorf("%s: %w", stream, err)
		}
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative, got: %s", c.Timeout)
		}
	}

	return nil
}

func (c RunProfile) toModel() model.Profile {
	// validate ran first, the parses below cannot fail anymore.
	stdin, _ := model.ParseStreamSpec(c.Stdio.Stdin)
	stdout, _ := model.ParseStreamSpec(c.Stdio.Stdout)
	stderr, _ := model.ParseStreamSpec(c.Stdio.Stderr)

	var timeout time.Duration
	if c.Timeout != "" {
		timeout, _ = time.ParseDuration(c.Timeout)
	}

	profile := model.Profile{
		Name: c.Name,
		Spec: model.RunSpec{
			Name:      c.Argv0,
			Args:      c.Args,
			Env:       c.Env,
			NoHostEnv: c.NoHostEnv,
			WorkDir:   c.WorkDir,
			Stdin:     stdin,
			Stdout:    stdout,
			Stderr:    stderr,
			TTY:       c.TTY,
			Timeout:   timeout,
		},
	}

	// Convert source configuration
	profile.Source = model.SourceSpec{
		File:  c.Source.File,
		URL:   c.Source.URL,
		Stdin: c.Source.Stdin,
	}
	if c.Source.Image != nil {
		profile.Source.Image = &model.ImageSourceSpec{
			Ref:  c.Source.Image.Ref,
			Path: c.Source.Image.Path,
		}
	}

	return profile
}
