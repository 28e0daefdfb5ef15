package model

import (
	"fmt"
	"strings"
	"time"
)

// StreamMode selects what a standard stream of the spawned program is
// connected to.
type StreamMode string

const (
	// StreamInherit connects the stream to the corresponding stream of the
	// runner process.
	StreamInherit StreamMode = "inherit"
	// StreamNull connects the stream to the OS null device.
	StreamNull StreamMode = "null"
	// StreamCapture pipes the stream back to the runner, which tees it to
	// its own stream and keeps the bytes. Not valid for stdin.
	StreamCapture StreamMode = "capture"
	// StreamFile connects the stream to a file on disk.
	StreamFile StreamMode = "file"
)

// StreamSpec is the configuration of a single standard stream.
// The zero value means inherit.
type StreamSpec struct {
	Mode StreamMode
	Path string // Only used with StreamFile.
}

// ParseStreamSpec parses the textual form of a stream wiring, as used by
// command line flags and profile files. Valid values are inherit, null,
// capture, file:PATH and the empty string, which keeps the zero value.
func ParseStreamSpec(value string) (StreamSpec, error) {
	switch value {
	case "":
		return StreamSpec{}, nil
	case "inherit":
		return StreamSpec{Mode: StreamInherit}, nil
	case "null":
		return StreamSpec{Mode: StreamNull}, nil
	case "capture":
		return StreamSpec{Mode: StreamCapture}, nil
	}

	if path, ok := strings.CutPrefix(value, "file:"); ok {
		if path == "" {
			return StreamSpec{}, fmt.Errorf("file stream requires a path: %w", ErrNotValid)
		}
		return StreamSpec{Mode: StreamFile, Path: path}, nil
	}

	return StreamSpec{}, fmt.Errorf("unknown stream value %q (want inherit, null, capture or file:PATH): %w", value, ErrNotValid)
}

func (s StreamSpec) validate(stdin bool) error {
	switch s.Mode {
	case "", StreamInherit, StreamNull:
	case StreamCapture:
		if stdin {
			return fmt.Errorf("stdin cannot be captured: %w", ErrNotValid)
		}
	case StreamFile:
		if s.Path == "" {
			return fmt.Errorf("file stream requires a path: %w", ErrNotValid)
		}
	default:
		return fmt.Errorf("unknown stream mode %q: %w", s.Mode, ErrNotValid)
	}

	return nil
}

// RunSpec is the full configuration for executing an in-memory image.
type RunSpec struct {
	// Name is the argv[0] the program sees. Defaults to the artifact name.
	Name string
	Args []string
	// Env entries override the host environment of the spawned program.
	Env map[string]string
	// NoHostEnv starts the program from an empty environment instead of the
	// host one; Env entries still apply.
	NoHostEnv bool
	WorkDir   string
	Stdin     StreamSpec
	Stdout    StreamSpec
	Stderr    StreamSpec
	// TTY runs the program under a pseudo terminal attached to all three
	// streams. Incompatible with per-stream modes other than inherit.
	TTY bool
	// Timeout kills the program after the given duration. Zero means no
	// timeout.
	Timeout time.Duration
}

// Validate validates the run spec.
func (s *RunSpec) Validate() error {
	if err := s.Stdin.validate(true); err != nil {
		return fmt.Errorf("stdin: %w", err)
	}
	if err := s.Stdout.validate(false); err != nil {
		return fmt.Errorf("stdout: %w", err)
	}
	if err := s.Stderr.validate(false); err != nil {
		return fmt.Errorf("stderr: %w", err)
	}

	if s.TTY {
		for _, st := range []StreamSpec{s.Stdin, s.Stdout, s.Stderr} {
			if st.Mode != "" && st.Mode != StreamInherit {
				return fmt.Errorf("tty mode requires inherited streams: %w", ErrNotValid)
			}
		}
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %w", ErrNotValid)
	}

	return nil
}

// RunResult is the outcome of executing an artifact.
type RunResult struct {
	PID      int
	ExitCode int    // -1 when signaled.
	Signal   int    // 0 when the program exited normally.
	Stdout   []byte // Captured bytes, only set with StreamCapture.
	Stderr   []byte
	Duration time.Duration
}

// Success reports whether the program exited normally with code zero.
func (r RunResult) Success() bool {
	return r.Signal == 0 && r.ExitCode == 0
}

// Profile is a named, reusable run configuration loaded from a file.
type Profile struct {
	Name   string
	Source SourceSpec
	Spec   RunSpec
}

// Validate validates the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	if err := p.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if err := p.Spec.Validate(); err != nil {
		return fmt.Errorf("spec: %w", err)
	}

	return nil
}
