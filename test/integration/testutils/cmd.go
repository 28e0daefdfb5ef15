package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

var multiSpaceRegex = regexp.MustCompile(" +")

// RunMemrun executes a memrun command with the given arguments string (split by spaces).
// Use RunMemrunArgs when arguments contain spaces that should be preserved.
func RunMemrun(ctx context.Context, env []string, binary, cmdArgs string, nolog bool) (stdout, stderr []byte, err error) {
	// Sanitize command.
	cmdArgs = strings.TrimSpace(cmdArgs)
	cmdArgs = multiSpaceRegex.ReplaceAllString(cmdArgs, " ")

	// Split into args.
	var args []string
	if cmdArgs != "" {
		args = strings.Split(cmdArgs, " ")
	}

	return RunMemrunArgs(ctx, env, binary, args, nolog)
}

// RunMemrunArgs executes a memrun command with pre-split arguments.
// This preserves arguments that contain spaces (e.g., sh -c "echo hello > /tmp/file").
func RunMemrunArgs(ctx context.Context, env []string, binary string, args []string, nolog bool) (stdout, stderr []byte, err error) {
	return RunMemrunInput(ctx, env, binary, args, nil, nolog)
}

// RunMemrunInput executes a memrun command with pre-split arguments and the
// given bytes fed to its standard input, for commands that read the program
// image from stdin.
func RunMemrunInput(ctx context.Context, env []string, binary string, args []string, input []byte, nolog bool) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	// Set env: os.Environ() first, then custom env overrides on top.
	// In Go's exec.Cmd, when duplicate keys exist, the last one wins.
	newEnv := append([]string{}, os.Environ()...)
	newEnv = append(newEnv, env...)
	if nolog {
		newEnv = append(newEnv, "MEMRUN_NO_LOG=true")
	}
	cmd.Env = newEnv

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}
