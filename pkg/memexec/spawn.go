package memexec

import (
	"fmt"
	"os"
	"syscall"

	"codeberg.org/msantos/execve"
	"golang.org/x/sys/unix"

	"github.com/slok/memrun/internal/memfd"
)

// Spawn validates the configuration, materializes the image as a sealed
// memory backed descriptor and starts the child process. Streams without
// an explicit policy inherit the caller's.
//
// The image descriptor is private to the spawn: it is created fresh on
// every call and closed before Spawn returns, so the child never sees it
// and spawning the same builder twice yields fully independent children.
func (e *Executable) Spawn() (*Child, error) {
	return e.spawn(Inherit(), Inherit(), Inherit(), currentStdio())
}

// Status spawns the program with inherited streams and waits for it to
// finish.
func (e *Executable) Status() (ExitStatus, error) {
	c, err := e.Spawn()
	if err != nil {
		return ExitStatus{}, err
	}
	return c.Wait()
}

// Output runs the program and collects what it prints. Streams without an
// explicit policy default to a null stdin and piped stdout and stderr.
func (e *Executable) Output() (*Output, error) {
	c, err := e.spawn(Null(), Piped(), Piped(), currentStdio())
	if err != nil {
		return nil, err
	}
	return c.WaitWithOutput()
}

// spawn is the state machine shared by Spawn, Status and Output: validate,
// resolve stdio, materialize the image, start the child, release the
// spawner's copies of the child-side descriptors. Every failure path
// closes everything created before it.
func (e *Executable) spawn(defIn, defOut, defErr Stdio, snap stdioSnapshot) (*Child, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	policies := [3]Stdio{
		stdioOr(e.stdin, defIn),
		stdioOr(e.stdout, defOut),
		stdioOr(e.stderr, defErr),
	}

	var rs [3]resolved
	for i, p := range policies {
		r, err := p.resolve(streamKind(i), snap)
		if err != nil {
			closeResolved(rs[:i])
			return nil, err
		}
		rs[i] = r
	}

	img, err := memfd.Create(e.name, e.code)
	if err != nil {
		closeResolved(rs[:])
		return nil, fmt.Errorf("could not materialize image: %w: %w", err, ErrImageCreation)
	}
	defer img.Close()

	// ForkExec performs the child side of the spawn: it installs the three
	// descriptors into slots 0..2, applies Dir, and execs the image through
	// its /proc path, which the kernel resolves while the pre-exec
	// descriptor table is still live. Child-side failures (unusable image,
	// bad directory) are reported back through its internal status pipe and
	// surface here as an immediate error.
	pid, err := syscall.ForkExec(memfd.ProcPath(img), e.argv(), &syscall.ProcAttr{
		Dir: e.dir,
		Env: e.environ(),
		Files: []uintptr{
			rs[0].child.Fd(),
			rs[1].child.Fd(),
			rs[2].child.Fd(),
		},
		Sys: e.sys,
	})
	if err != nil {
		closeResolved(rs[:])
		return nil, fmt.Errorf("could not start process: %w: %w", err, ErrSpawn)
	}

	// The child owns its copies of the stream descriptors now. The spawner
	// must drop its own, otherwise end-of-stream on the pipes would never
	// be observable.
	for _, r := range rs {
		if r.ownedChild {
			r.child.Close()
		}
	}

	return &Child{
		Stdin:  rs[0].parent,
		Stdout: rs[1].parent,
		Stderr: rs[2].parent,
		pid:    pid,
	}, nil
}

// Exec replaces the calling process with the configured program, the
// memory backed equivalent of the usual exec call: stdio policies and the
// working directory are applied to the current process first, then the
// image is executed through its descriptor. On success it never returns.
//
// Piped streams cannot be used here, there is no surviving parent to hold
// the other end; they fail with [ErrInvalidArgument] before anything is
// touched.
func (e *Executable) Exec() error {
	if err := e.validate(); err != nil {
		return err
	}

	policies := [3]Stdio{
		stdioOr(e.stdin, Inherit()),
		stdioOr(e.stdout, Inherit()),
		stdioOr(e.stderr, Inherit()),
	}
	for _, p := range policies {
		if p.kind == stdioPiped {
			return fmt.Errorf("piped streams cannot survive process replacement: %w", ErrInvalidArgument)
		}
	}

	snap := currentStdio()
	var rs [3]resolved
	for i, p := range policies {
		r, err := p.resolve(streamKind(i), snap)
		if err != nil {
			closeResolved(rs[:i])
			return err
		}
		rs[i] = r
	}

	// Lift every source above the stdio range first so installing one slot
	// cannot clobber another slot's source.
	var lifted [3]int
	for i, r := range rs {
		fd, err := unix.FcntlInt(r.child.Fd(), unix.F_DUPFD_CLOEXEC, 3)
		if err != nil {
			for _, l := range lifted[:i] {
				unix.Close(l)
			}
			closeResolved(rs[:])
			return fmt.Errorf("could not duplicate stream descriptor: %w", err)
		}
		lifted[i] = fd
	}
	for slot, fd := range lifted {
		if err := unix.Dup3(fd, slot, 0); err != nil {
			return fmt.Errorf("could not install stream %d: %w", slot, err)
		}
		unix.Close(fd)
	}
	for slot, r := range rs {
		if r.ownedChild && int(r.child.Fd()) != slot {
			r.child.Close()
		}
	}

	if e.dir != "" {
		if err := os.Chdir(e.dir); err != nil {
			return fmt.Errorf("could not change directory: %w: %w", err, ErrSpawn)
		}
	}

	img, err := memfd.Create(e.name, e.code)
	if err != nil {
		return fmt.Errorf("could not materialize image: %w: %w", err, ErrImageCreation)
	}

	err = execve.Fexecve(img.Fd(), e.argv(), e.environ())
	img.Close()
	return fmt.Errorf("could not execute image: %w: %w", err, ErrSpawn)
}
