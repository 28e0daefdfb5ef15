package memrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/memrun/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "memrun"
	}

	// If relative, the caller should pass an absolute path via the env var,
	// because go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("MEMRUN_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("memrun binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "MEMRUN_INTEGRATION"
		envBinary     = "MEMRUN_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunCmd runs a memrun command with the given arguments and a specific db path.
// It suppresses logging output for cleaner test output.
func RunCmd(ctx context.Context, config Config, dbPath, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --db-path %s %s", dbPath, cmdArgs)
	return testutils.RunMemrun(ctx, nil, config.Binary, args, true)
}

// RunCmdArgs runs a memrun command with pre-split arguments to preserve
// arguments with spaces (e.g., sh -c "echo hello").
func RunCmdArgs(ctx context.Context, config Config, dbPath string, cmdArgs []string) (stdout, stderr []byte, err error) {
	args := []string{"--no-log", "--db-path", dbPath}
	args = append(args, cmdArgs...)
	return testutils.RunMemrunArgs(ctx, nil, config.Binary, args, true)
}

// RunCmdInput runs a memrun command with pre-split arguments and the given
// bytes on standard input, for runs that read the program image from stdin.
func RunCmdInput(ctx context.Context, config Config, dbPath string, cmdArgs []string, input []byte) (stdout, stderr []byte, err error) {
	args := []string{"--no-log", "--db-path", dbPath}
	args = append(args, cmdArgs...)
	return testutils.RunMemrunInput(ctx, nil, config.Binary, args, input, true)
}

// RunHistoryList lists recorded runs in JSON format.
func RunHistoryList(ctx context.Context, config Config, dbPath string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, "history list --format json")
}

// RunHistoryRm removes one recorded run by ID.
func RunHistoryRm(ctx context.Context, config Config, dbPath, id string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, fmt.Sprintf("history rm %s", id))
}

// RunHistoryRmAll removes every recorded run.
func RunHistoryRmAll(ctx context.Context, config Config, dbPath string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, dbPath, "history rm --all")
}
