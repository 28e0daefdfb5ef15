// Package memexec runs Linux executables that exist only as in-memory
// byte buffers, never writing them to disk.
//
// The program bytes are materialized as an anonymous, sealed, memory
// backed file descriptor and executed through the descriptor based exec
// path. The API deliberately mirrors the usual command builders, so code
// that spawns subprocesses from files needs almost no changes to spawn
// them from memory.
//
// # Quick Start
//
// Build an [Executable] from bytes, configure it, spawn it and wait:
//
//	code, err := os.ReadFile("/bin/cat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	child, err := memexec.New("cat", code).
//	    Stdin(memexec.Piped()).
//	    Stdout(memexec.Piped()).
//	    Stderr(memexec.Null()).
//	    Spawn()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	child.Stdin.Write([]byte("hello"))
//	child.Stdin.Close()
//	out, err := child.WaitWithOutput()
//
// # Stdio Policies
//
// Each standard stream carries one [Stdio] policy:
//
//   - [Inherit]: the child shares the caller's descriptor for that slot.
//     This is the default for unset streams.
//   - [Piped]: a new pipe whose parent side is exposed on the [Child].
//   - [Null]: the OS null device.
//   - [FromFile]: a caller-supplied open file, used as-is; the caller
//     keeps ownership of it.
//
// # Collecting Output
//
// [Child.WaitWithOutput] drains piped stdout and stderr concurrently and
// then waits, which is the only deadlock-free way to consume both pipes.
// [Executable.Output] is the one-call version with capture-friendly
// defaults, and [Executable.Status] runs the program with inherited
// streams and returns only its [ExitStatus].
//
// # Process Replacement
//
// [Executable.Exec] replaces the calling process with the in-memory
// program instead of spawning a child, the memory backed equivalent of
// the classic exec call. On success it never returns.
//
// # Error Handling
//
// All failures are wrapped sentinel errors inspectable with [errors.Is]:
// [ErrImageCreation], [ErrPipeCreation], [ErrInvalidArgument],
// [ErrSpawn], [ErrWait] and [ErrAlreadyWaited]. Every failure path
// releases the descriptors it created, a failed spawn never leaks.
//
// # Concurrency
//
// A spawn involves a single calling goroutine; the one place real
// concurrency is required, draining two pipes at once, is internal to
// [Child.WaitWithOutput]. [Child.Kill] and [Child.TryWait] are safe to
// call while another goroutine waits.
//
// The package is Linux only.
package memexec
