package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/memrun/internal/source"
	utilsenv "github.com/slok/memrun/internal/utils/env"
	"github.com/slok/memrun/pkg/memexec"
)

type ExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	program     string
	args        []string
	argv0       string
	envSpecs    []string
	envRemovals []string
	noHostEnv   bool
	workDir     string
}

// NewExecCommand returns the exec command.
func NewExecCommand(rootCmd *RootCommand, app *kingpin.Application) *ExecCommand {
	c := &ExecCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("exec", "Replace the current process with a program loaded into memory.")
	c.Cmd.Arg("program", "Executable file to load.").Required().StringVar(&c.program)
	c.Cmd.Arg("args", "Arguments passed to the program (use -- before them).").StringsVar(&c.args)
	c.Cmd.Flag("argv0", "Program name (argv[0]) reported to the program.").StringVar(&c.argv0)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("env-remove", "Environment variables to drop from the inherited environment. Can be repeated.").StringsVar(&c.envRemovals)
	c.Cmd.Flag("no-host-env", "Do not inherit the host environment.").BoolVar(&c.noHostEnv)
	c.Cmd.Flag("workdir", "Working directory for the program.").Short('w').StringVar(&c.workDir)

	return c
}

func (c ExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cmdEnv, err := parseEnvSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}
	removals, err := utilsenv.ParseRemovals(c.envRemovals)
	if err != nil {
		return fmt.Errorf("invalid --env-remove value: %w", err)
	}

	// Load the program bytes.
	src, err := source.NewFileSource(source.FileSourceConfig{
		Path:   c.program,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create source: %w", err)
	}

	artifact, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch program: %w", err)
	}

	exe := memexec.New(artifact.Name, artifact.Data).Args(c.args...)
	if c.argv0 != "" {
		exe = exe.Argv0(c.argv0)
	}
	if c.noHostEnv {
		exe = exe.EnvClear()
	}
	for _, key := range removals {
		exe = exe.EnvRemove(key)
	}
	exe = exe.Envs(cmdEnv).Dir(c.workDir)

	logger.Debugf("Replacing process with %q (%d bytes)", artifact.Name, artifact.SizeBytes)

	// Exec only returns when the replacement failed.
	err = exe.Exec()
	fmt.Fprintf(c.rootCmd.Stderr, "Error: %s\n", err)
	os.Exit(126)
	return nil
}
