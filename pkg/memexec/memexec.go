package memexec

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
)

// Executable accumulates the configuration of a program that exists only
// as an in-memory byte buffer and spawns it. It mirrors the usual command
// builder APIs: all configuration methods chain, never fail, and defer
// validation to [Executable.Spawn].
//
// The zero value is not usable, create instances with [New]. A builder is
// reusable: spawning does not consume it, and mutating it afterwards does
// not affect already spawned children.
type Executable struct {
	code []byte
	name string
	args []string
	dir  string

	envClear bool
	// envOverrides holds explicit variable changes, a nil value marks a
	// removal.
	envOverrides map[string]*string

	stdin  *Stdio
	stdout *Stdio
	stderr *Stdio

	sys *syscall.SysProcAttr
}

// New returns a builder for the program contained in code. The name
// becomes the child's argv[0] and is a display identity only, it does not
// reference any filesystem path.
func New(name string, code []byte) *Executable {
	return &Executable{name: name, code: code}
}

// Argv0 replaces the argv[0] the program will see, independently of the
// image being executed.
func (e *Executable) Argv0(name string) *Executable {
	e.name = name
	return e
}

// Arg appends a single argument.
func (e *Executable) Arg(arg string) *Executable {
	e.args = append(e.args, arg)
	return e
}

// Args appends several arguments at once.
func (e *Executable) Args(args ...string) *Executable {
	e.args = append(e.args, args...)
	return e
}

// Env sets an environment variable for the child, overriding any value
// inherited from the host environment.
func (e *Executable) Env(key, value string) *Executable {
	if e.envOverrides == nil {
		e.envOverrides = map[string]*string{}
	}
	v := value
	e.envOverrides[key] = &v
	return e
}

// Envs sets several environment variables at once.
func (e *Executable) Envs(vars map[string]string) *Executable {
	for k, v := range vars {
		e.Env(k, v)
	}
	return e
}

// EnvRemove drops a variable from the child environment, even when the
// host environment defines it.
func (e *Executable) EnvRemove(key string) *Executable {
	if e.envOverrides == nil {
		e.envOverrides = map[string]*string{}
	}
	e.envOverrides[key] = nil
	return e
}

// EnvClear starts the child environment from empty instead of the host
// environment. Variables set with [Executable.Env] after this call still
// apply.
func (e *Executable) EnvClear() *Executable {
	e.envClear = true
	e.envOverrides = nil
	return e
}

// Dir sets the child's working directory. When empty the child keeps the
// caller's working directory.
func (e *Executable) Dir(dir string) *Executable {
	e.dir = dir
	return e
}

// Stdin sets the policy for the child's standard input. Unset streams
// default to [Inherit].
func (e *Executable) Stdin(s Stdio) *Executable {
	e.stdin = &s
	return e
}

// Stdout sets the policy for the child's standard output. Unset streams
// default to [Inherit].
func (e *Executable) Stdout(s Stdio) *Executable {
	e.stdout = &s
	return e
}

// Stderr sets the policy for the child's standard error. Unset streams
// default to [Inherit].
func (e *Executable) Stderr(s Stdio) *Executable {
	e.stderr = &s
	return e
}

// SysProcAttr sets additional operating system attributes for the
// spawned child, such as a new session or a controlling terminal. Only
// [Executable.Spawn] and the calls built on it apply them; process
// replacement with [Executable.Exec] keeps the attributes of the calling
// process.
func (e *Executable) SysProcAttr(attr *syscall.SysProcAttr) *Executable {
	e.sys = attr
	return e
}

// validate checks everything that crosses the OS boundary as a
// NUL-terminated string. It runs before any OS resource is created.
func (e *Executable) validate() error {
	if e.name == "" {
		return fmt.Errorf("argv0 is required: %w", ErrInvalidArgument)
	}
	if strings.ContainsRune(e.name, 0) {
		return fmt.Errorf("argv0 contains a NUL byte: %w", ErrInvalidArgument)
	}
	for i, arg := range e.args {
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("argument %d contains a NUL byte: %w", i, ErrInvalidArgument)
		}
	}
	for k, v := range e.envOverrides {
		if strings.ContainsRune(k, 0) {
			return fmt.Errorf("environment key %q contains a NUL byte: %w", k, ErrInvalidArgument)
		}
		if v != nil && strings.ContainsRune(*v, 0) {
			return fmt.Errorf("environment value for %q contains a NUL byte: %w", k, ErrInvalidArgument)
		}
	}
	if strings.ContainsRune(e.dir, 0) {
		return fmt.Errorf("working directory contains a NUL byte: %w", ErrInvalidArgument)
	}

	return nil
}

// environ captures the environment the child will receive: the host
// environment unless cleared, with the builder's overrides and removals
// applied on top. The result is sorted whenever overrides exist so two
// spawns of the same builder see identical environments.
func (e *Executable) environ() []string {
	var base []string
	if !e.envClear {
		base = os.Environ()
	}

	if len(e.envOverrides) == 0 {
		if base == nil {
			return []string{}
		}
		return base
	}

	merged := make(map[string]string, len(base)+len(e.envOverrides))
	for _, kv := range base {
		k, v, _ := strings.Cut(kv, "=")
		merged[k] = v
	}
	for k, v := range e.envOverrides {
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = *v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	envv := make([]string, 0, len(merged))
	for _, k := range keys {
		envv = append(envv, k+"="+merged[k])
	}

	return envv
}

// argv returns the full argument vector, argv[0] included, as a fresh
// slice so later builder mutations cannot reach a spawned child.
func (e *Executable) argv() []string {
	argv := make([]string, 0, len(e.args)+1)
	argv = append(argv, e.name)
	argv = append(argv, e.args...)
	return argv
}
