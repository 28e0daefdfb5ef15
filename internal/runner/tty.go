package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/pkg/memexec"
)

// fdReader is an io.Reader that exposes its file descriptor.
type fdReader interface {
	io.Reader
	Fd() uintptr
}

// terminalFd returns the descriptor behind a reader when it is an
// interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(fdReader)
	if !ok {
		return 0, false
	}

	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// runTerminal executes the program under a fresh pseudo terminal: the
// child gets the terminal side as its three streams and as controlling
// terminal, the runner relays bytes between its own streams and the
// control side.
func (e *Exec) runTerminal(ctx context.Context, exe *memexec.Executable) (*model.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("could not allocate pseudo terminal: %w", err)
	}
	defer ptmx.Close()

	exe.Stdin(memexec.FromFile(tty)).
		Stdout(memexec.FromFile(tty)).
		Stderr(memexec.FromFile(tty)).
		SysProcAttr(&syscall.SysProcAttr{Setsid: true, Setctty: true})

	// Raw mode and size tracking only make sense when the runner itself is
	// attached to a terminal.
	if fd, ok := terminalFd(e.stdin); ok {
		state, err := term.MakeRaw(fd)
		if err != nil {
			tty.Close()
			return nil, fmt.Errorf("could not set terminal raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, state) }()

		if f, ok := e.stdin.(*os.File); ok {
			stop := watchWindowSize(f, ptmx)
			defer stop()
		}
	}

	start := time.Now()
	child, err := exe.Spawn()
	tty.Close()
	if err != nil {
		return nil, fmt.Errorf("could not start program: %w", err)
	}
	e.logger.Debugf("Spawned process %d on a pseudo terminal", child.Pid())

	// The output copy ends when the terminal side is fully released. The
	// input copy has no such signal and is abandoned instead; its next
	// read fails or goes nowhere once ptmx is closed.
	outDone := make(chan struct{})
	go func() {
		defer close(outDone)
		_, _ = io.Copy(e.stdout, ptmx)
	}()
	go func() { _, _ = io.Copy(ptmx, e.stdin) }()

	st, err := e.wait(ctx, child)
	if err != nil {
		return nil, err
	}

	// Bytes the program wrote right before exiting may still sit in the
	// terminal buffer. A descendant that keeps the terminal open can delay
	// the copy's end indefinitely, so the drain wait is bounded.
	select {
	case <-outDone:
	case <-time.After(ttyDrainGrace):
	}

	return newResult(child.Pid(), st, nil, nil, time.Since(start)), nil
}

// ttyDrainGrace bounds how long a finished run waits for the last bytes
// of terminal output to be relayed.
const ttyDrainGrace = 250 * time.Millisecond

// watchWindowSize keeps the pseudo terminal sized like the controlling
// terminal, following resize signals. The returned function stops the
// watch.
func watchWindowSize(from, to *os.File) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			_ = pty.InheritSize(from, to)
		}
	}()
	ch <- syscall.SIGWINCH

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
