package memexec

import (
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitStatus describes how a program ended: a normal exit carrying a
// code, or termination by a signal.
type ExitStatus struct {
	ws unix.WaitStatus
}

// Exited reports whether the program ended normally.
func (s ExitStatus) Exited() bool { return s.ws.Exited() }

// Code returns the exit code of a normally exited program, -1 when it was
// terminated by a signal.
func (s ExitStatus) Code() int {
	if s.ws.Exited() {
		return s.ws.ExitStatus()
	}
	return -1
}

// Signaled reports whether the program was terminated by a signal.
func (s ExitStatus) Signaled() bool { return s.ws.Signaled() }

// Signal returns the terminating signal, -1 when the program exited
// normally.
func (s ExitStatus) Signal() syscall.Signal { return s.ws.Signal() }

// Success reports whether the program exited normally with code 0.
func (s ExitStatus) Success() bool { return s.ws.Exited() && s.ws.ExitStatus() == 0 }

func (s ExitStatus) String() string {
	switch {
	case s.ws.Exited():
		return fmt.Sprintf("exit status %d", s.ws.ExitStatus())
	case s.ws.Signaled():
		return "signal: " + s.ws.Signal().String()
	default:
		return fmt.Sprintf("wait status %d", uint32(s.ws))
	}
}

// Output is the collected outcome of a fully drained run.
type Output struct {
	Status ExitStatus
	Stdout []byte
	Stderr []byte
}

// Child is a live spawned process.
//
// The stream fields are set only for streams that were configured with
// [Piped]; they hold the parent side of each pipe. A Child supports
// concurrent [Child.Kill] and [Child.TryWait] alongside a single waiting
// goroutine; calling [Child.Wait] from several goroutines at once is a
// misuse.
type Child struct {
	// Stdin is the write end of the child's standard input pipe.
	Stdin *os.File
	// Stdout is the read end of the child's standard output pipe.
	Stdout *os.File
	// Stderr is the read end of the child's standard error pipe.
	Stderr *os.File

	pid int

	mu     sync.Mutex
	status *ExitStatus
	waited bool
}

// Pid returns the OS process identifier of the child.
func (c *Child) Pid() int { return c.pid }

// TryWait polls the child without blocking: nil while the child is still
// running, the terminal status once it has ended. After the child has
// been reaped the cached status keeps being returned.
func (c *Child) TryWait() (*ExitStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != nil {
		st := *c.status
		return &st, nil
	}

	var ws unix.WaitStatus
	pid, err := wait4(c.pid, &ws, unix.WNOHANG)
	if err != nil {
		return nil, fmt.Errorf("could not poll process %d: %w: %w", c.pid, err, ErrWait)
	}
	if pid == 0 {
		// Still running.
		return nil, nil
	}

	st := ExitStatus{ws: ws}
	c.status = &st
	out := st
	return &out, nil
}

// Wait blocks until the child ends and returns its terminal status. The
// child's stdin pipe, when present, is closed first so a program reading
// its input cannot outlive the caller's intent. A second Wait after a
// completed one fails with [ErrAlreadyWaited].
func (c *Child) Wait() (ExitStatus, error) {
	c.mu.Lock()
	if c.waited {
		c.mu.Unlock()
		return ExitStatus{}, fmt.Errorf("process %d: %w", c.pid, ErrAlreadyWaited)
	}
	if c.status != nil {
		// Reaped by TryWait, this completes the first Wait.
		st := *c.status
		c.waited = true
		c.mu.Unlock()
		c.closeStdin()
		return st, nil
	}
	c.mu.Unlock()

	c.closeStdin()

	var ws unix.WaitStatus
	if _, err := wait4(c.pid, &ws, 0); err != nil {
		return ExitStatus{}, fmt.Errorf("could not wait for process %d: %w: %w", c.pid, err, ErrWait)
	}

	st := ExitStatus{ws: ws}
	c.mu.Lock()
	c.status = &st
	c.waited = true
	c.mu.Unlock()

	return st, nil
}

// Kill sends SIGKILL to the child. Killing a child that already ended is
// a no-op, not an error.
func (c *Child) Kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.waited || c.status != nil {
		return nil
	}

	err := unix.Kill(c.pid, unix.SIGKILL)
	if err != nil && err != unix.ESRCH {
		return fmt.Errorf("could not kill process %d: %w", c.pid, err)
	}
	return nil
}

// WaitWithOutput closes the child's stdin pipe, drains stdout and stderr
// concurrently until end of stream, then waits for the child and returns
// everything together. Draining must be concurrent: a child that fills
// one pipe while the other is being read to completion would deadlock
// otherwise.
//
// If the caller detached the Stdin field and keeps the pipe open
// elsewhere, a child reading its input will block forever and this call
// will block with it.
func (c *Child) WaitWithOutput() (*Output, error) {
	c.closeStdin()

	var wg sync.WaitGroup
	var stdout, stderr []byte
	var stdoutErr, stderrErr error

	if c.Stdout != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stdout, stdoutErr = io.ReadAll(c.Stdout)
		}()
	}
	if c.Stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stderr, stderrErr = io.ReadAll(c.Stderr)
		}()
	}
	wg.Wait()

	if c.Stdout != nil {
		c.Stdout.Close()
	}
	if c.Stderr != nil {
		c.Stderr.Close()
	}

	st, err := c.Wait()
	if err != nil {
		return nil, err
	}
	if stdoutErr != nil {
		return nil, fmt.Errorf("could not drain stdout: %w", stdoutErr)
	}
	if stderrErr != nil {
		return nil, fmt.Errorf("could not drain stderr: %w", stderrErr)
	}

	return &Output{Status: st, Stdout: stdout, Stderr: stderr}, nil
}

func (c *Child) closeStdin() {
	if c.Stdin != nil {
		c.Stdin.Close()
	}
}

// wait4 retries on EINTR, which the runtime's signal handling makes
// routine.
func wait4(pid int, ws *unix.WaitStatus, options int) (int, error) {
	for {
		n, err := unix.Wait4(pid, ws, options, nil)
		if err != unix.EINTR {
			return n, err
		}
	}
}
