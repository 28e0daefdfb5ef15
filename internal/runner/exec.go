package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/pkg/memexec"
)

// ExecConfig is the configuration for the exec runner.
type ExecConfig struct {
	// Stdin, Stdout and Stderr are the runner's own streams, used for
	// terminal copies and for mirroring captured output. They default to
	// the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

func (c *ExecConfig) defaults() error {
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "runner.Exec"})

	return nil
}

// Exec is a Runner that executes artifacts directly on the host from
// anonymous in-memory files, without writing them to disk.
type Exec struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger log.Logger
}

// NewExec creates a new exec runner.
func NewExec(cfg ExecConfig) (*Exec, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Exec{
		stdin:  cfg.Stdin,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}, nil
}

// Run executes the artifact and blocks until it ends.
func (e *Exec) Run(ctx context.Context, spec model.RunSpec, artifact model.Artifact) (*model.RunResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run spec: %w", err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	exe := memexec.New(artifact.Name, artifact.Data).Args(spec.Args...)
	if spec.Name != "" {
		exe.Argv0(spec.Name)
	}
	// EnvClear drops previous overrides, it has to run before Envs.
	if spec.NoHostEnv {
		exe.EnvClear()
	}
	if len(spec.Env) > 0 {
		exe.Envs(spec.Env)
	}
	if spec.WorkDir != "" {
		exe.Dir(spec.WorkDir)
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	if spec.TTY {
		return e.runTerminal(ctx, exe)
	}

	return e.run(ctx, spec, exe)
}

func (e *Exec) run(ctx context.Context, spec model.RunSpec, exe *memexec.Executable) (*model.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stream files opened here stay open until the child holds its own
	// copies.
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	stdin, err := readStream(spec.Stdin, &files)
	if err != nil {
		return nil, err
	}
	stdout, err := writeStream(spec.Stdout, &files)
	if err != nil {
		return nil, err
	}
	stderr, err := writeStream(spec.Stderr, &files)
	if err != nil {
		return nil, err
	}
	exe.Stdin(stdin).Stdout(stdout).Stderr(stderr)

	start := time.Now()
	child, err := exe.Spawn()
	if err != nil {
		return nil, fmt.Errorf("could not start program: %w", err)
	}
	e.logger.Debugf("Spawned process %d", child.Pid())

	// Captured streams are mirrored live while the bytes accumulate. The
	// copies end on their own: the pipe write ends live only in the child.
	var wg sync.WaitGroup
	var stdoutBuf, stderrBuf bytes.Buffer
	if child.Stdout != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(io.MultiWriter(&stdoutBuf, e.stdout), child.Stdout)
		}()
	}
	if child.Stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(io.MultiWriter(&stderrBuf, e.stderr), child.Stderr)
		}()
	}

	st, err := e.wait(ctx, child)
	wg.Wait()
	if child.Stdout != nil {
		child.Stdout.Close()
	}
	if child.Stderr != nil {
		child.Stderr.Close()
	}
	if err != nil {
		return nil, err
	}

	return newResult(child.Pid(), st, stdoutBuf.Bytes(), stderrBuf.Bytes(), time.Since(start)), nil
}

// wait blocks until the child ends, killing it when the context is done
// first.
func (e *Exec) wait(ctx context.Context, child *memexec.Child) (memexec.ExitStatus, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			e.logger.Debugf("Context done, killing process %d", child.Pid())
			_ = child.Kill()
		case <-done:
		}
	}()

	st, err := child.Wait()
	if err != nil {
		return memexec.ExitStatus{}, fmt.Errorf("could not wait for program: %w", err)
	}

	return st, nil
}

// readStream maps a stream spec to a child input policy, opening the
// backing file when needed.
func readStream(s model.StreamSpec, files *[]*os.File) (memexec.Stdio, error) {
	switch s.Mode {
	case "", model.StreamInherit:
		return memexec.Inherit(), nil
	case model.StreamNull:
		return memexec.Null(), nil
	case model.StreamFile:
		f, err := os.Open(s.Path)
		if err != nil {
			return memexec.Stdio{}, fmt.Errorf("could not open stdin file: %w", err)
		}
		*files = append(*files, f)
		return memexec.FromFile(f), nil
	}

	return memexec.Stdio{}, fmt.Errorf("stream mode %q cannot feed stdin", s.Mode)
}

// writeStream maps a stream spec to a child output policy, creating the
// backing file when needed.
func writeStream(s model.StreamSpec, files *[]*os.File) (memexec.Stdio, error) {
	switch s.Mode {
	case "", model.StreamInherit:
		return memexec.Inherit(), nil
	case model.StreamNull:
		return memexec.Null(), nil
	case model.StreamCapture:
		return memexec.Piped(), nil
	case model.StreamFile:
		f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return memexec.Stdio{}, fmt.Errorf("could not open stream file: %w", err)
		}
		*files = append(*files, f)
		return memexec.FromFile(f), nil
	}

	return memexec.Stdio{}, fmt.Errorf("unknown stream mode %q", s.Mode)
}

func newResult(pid int, st memexec.ExitStatus, stdout, stderr []byte, d time.Duration) *model.RunResult {
	signal := 0
	if st.Signaled() {
		signal = int(st.Signal())
	}

	return &model.RunResult{
		PID:      pid,
		ExitCode: st.Code(),
		Signal:   signal,
		Stdout:   stdout,
		Stderr:   stderr,
		Duration: d,
	}
}
