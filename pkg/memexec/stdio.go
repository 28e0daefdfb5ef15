package memexec

import (
	"fmt"
	"os"
)

type stdioKind int

const (
	stdioInherit stdioKind = iota
	stdioPiped
	stdioNull
	stdioFile
)

// Stdio selects what a standard stream of the spawned program is connected
// to. The zero value is [Inherit].
type Stdio struct {
	kind stdioKind
	file *os.File
}

// Inherit connects the child stream to the descriptor the calling process
// currently uses for that slot.
func Inherit() Stdio { return Stdio{kind: stdioInherit} }

// Piped connects the child stream to a new pipe whose other end is handed
// to the caller on the returned [Child].
func Piped() Stdio { return Stdio{kind: stdioPiped} }

// Null connects the child stream to the OS null device.
func Null() Stdio { return Stdio{kind: stdioNull} }

// FromFile connects the child stream to an existing open file. The caller
// keeps ownership of the file before and after spawning.
func FromFile(f *os.File) Stdio { return Stdio{kind: stdioFile, file: f} }

type streamKind int

const (
	streamStdin streamKind = iota
	streamStdout
	streamStderr
)

// stdioSnapshot is the spawner's view of the calling process standard
// streams. Resolution receives it as an explicit value instead of reading
// process globals, so it can be substituted.
type stdioSnapshot struct {
	in  *os.File
	out *os.File
	err *os.File
}

func currentStdio() stdioSnapshot {
	return stdioSnapshot{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// resolved is the outcome of resolving one stream policy: the file to
// install in the child slot, the end the parent keeps (pipes only), and
// whether the spawner owns the child side and must close it after the
// child has started.
type resolved struct {
	child      *os.File
	parent     *os.File
	ownedChild bool
}

func (s Stdio) resolve(stream streamKind, snap stdioSnapshot) (resolved, error) {
	switch s.kind {
	case stdioInherit:
		switch stream {
		case streamStdin:
			return resolved{child: snap.in}, nil
		case streamStdout:
			return resolved{child: snap.out}, nil
		default:
			return resolved{child: snap.err}, nil
		}

	case stdioPiped:
		r, w, err := os.Pipe()
		if err != nil {
			return resolved{}, fmt.Errorf("could not create pipe: %w: %w", err, ErrPipeCreation)
		}
		if stream == streamStdin {
			return resolved{child: r, parent: w, ownedChild: true}, nil
		}
		return resolved{child: w, parent: r, ownedChild: true}, nil

	case stdioNull:
		flag := os.O_WRONLY
		if stream == streamStdin {
			flag = os.O_RDONLY
		}
		f, err := os.OpenFile(os.DevNull, flag, 0)
		if err != nil {
			return resolved{}, fmt.Errorf("could not open %s: %w", os.DevNull, err)
		}
		return resolved{child: f, ownedChild: true}, nil

	default:
		if s.file == nil {
			return resolved{}, fmt.Errorf("stream file is nil: %w", ErrInvalidArgument)
		}
		return resolved{child: s.file}, nil
	}
}

// close releases whatever the resolution owns, both ends included. Used
// when a spawn unwinds.
func (r resolved) close() {
	if r.ownedChild && r.child != nil {
		r.child.Close()
	}
	if r.parent != nil {
		r.parent.Close()
	}
}

func closeResolved(rs []resolved) {
	for _, r := range rs {
		r.close()
	}
}

func stdioOr(set *Stdio, def Stdio) Stdio {
	if set != nil {
		return *set
	}
	return def
}
