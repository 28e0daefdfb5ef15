// Package memfd turns byte buffers into sealed, anonymous, memory backed
// file descriptors suitable for descriptor based execution. Linux only.
package memfd

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// sealAll marks the file immutable: no shrinking, no growing, no writes
// and no further seal changes.
const sealAll = unix.F_SEAL_SEAL | unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE

// maxNameLen is the kernel limit for memfd names (249 bytes).
const maxNameLen = 249

// Create returns an anonymous memory backed file containing data, sealed
// against any modification before it is returned.
//
// The descriptor is close-on-exec: the executed program never sees it. The
// kernel resolves the /proc exec path while the pre-exec descriptor table
// is still live, so this does not interfere with execution.
func Create(name string, data []byte) (*os.File, error) {
	fdName := sanitizeName(name)

	// MFD_EXEC is only known to kernels >= 6.3, retry without it on older ones.
	fd, err := unix.MemfdCreate(fdName, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING|unix.MFD_EXEC)
	if err != nil {
		fd, err = unix.MemfdCreate(fdName, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	}
	if err != nil {
		return nil, fmt.Errorf("could not create memfd: %w", err)
	}

	f := os.NewFile(uintptr(fd), fdName)

	n, err := f.Write(data)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not write image to memfd: %w", err)
	}
	if n != len(data) {
		f.Close()
		return nil, fmt.Errorf("incomplete image write: wrote %d of %d bytes", n, len(data))
	}

	if _, err := unix.FcntlInt(f.Fd(), unix.F_ADD_SEALS, sealAll); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not seal memfd: %w", err)
	}

	// A descriptor below 3 would be clobbered by the child side stdio
	// installation, move it above the standard stream range.
	if f.Fd() < 3 {
		newFD, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 3)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("could not move memfd above the stdio range: %w", err)
		}
		f.Close()
		f = os.NewFile(uintptr(newFD), fdName)
	}

	return f, nil
}

// ProcPath returns the /proc path through which the file can be executed.
func ProcPath(f *os.File) string {
	return fmt.Sprintf("/proc/self/fd/%d", f.Fd())
}

// sanitizeName adapts a program name to what memfd_create accepts: no
// slashes, not empty, bounded length.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		name = "memexec"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	return name
}
