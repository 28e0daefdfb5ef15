package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-isatty"

	apprun "github.com/slok/memrun/internal/app/run"
	"github.com/slok/memrun/internal/conventions"
	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/runner"
	"github.com/slok/memrun/internal/source"
	"github.com/slok/memrun/internal/storage"
	storageio "github.com/slok/memrun/internal/storage/io"
	"github.com/slok/memrun/internal/storage/memory"
	"github.com/slok/memrun/internal/storage/sqlite"
	utilsenv "github.com/slok/memrun/internal/utils/env"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	// Program selection.
	positionals []string
	url         string
	imageRef    string
	imagePath   string
	profile     string

	// Execution flags.
	argv0      string
	envSpecs   []string
	noHostEnv  bool
	workDir    string
	stdinMode  string
	stdoutMode string
	stderrMode string
	capture    bool
	tty        bool
	timeout    time.Duration
	noRecord   bool
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a program straight from memory.")
	c.Cmd.Arg("program", "Executable file (or - for stdin) followed by its arguments. With --url, --image or --profile all positionals are program arguments.").StringsVar(&c.positionals)

	// Program selection flags.
	c.Cmd.Flag("url", "Download the program from an HTTP(S) URL.").StringVar(&c.url)
	c.Cmd.Flag("image", "Extract the program from an OCI image reference.").StringVar(&c.imageRef)
	c.Cmd.Flag("image-path", "Path of the program inside the image (requires --image).").StringVar(&c.imagePath)
	c.Cmd.Flag("profile", "Run profile name (or YAML file path) providing the source and options.").StringVar(&c.profile)

	// Execution flags.
	c.Cmd.Flag("argv0", "Program name (argv[0]) reported to the program.").StringVar(&c.argv0)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("no-host-env", "Do not inherit the host environment.").BoolVar(&c.noHostEnv)
	c.Cmd.Flag("workdir", "Working directory for the program.").Short('w').StringVar(&c.workDir)
	c.Cmd.Flag("stdin", "Stdin wiring (inherit, null or file:PATH).").StringVar(&c.stdinMode)
	c.Cmd.Flag("stdout", "Stdout wiring (inherit, null, capture or file:PATH).").StringVar(&c.stdoutMode)
	c.Cmd.Flag("stderr", "Stderr wiring (inherit, null, capture or file:PATH).").StringVar(&c.stderrMode)
	c.Cmd.Flag("capture", "Capture stdout and stderr while still forwarding them.").BoolVar(&c.capture)
	c.Cmd.Flag("tty", "Run the program under a pseudo terminal.").Short('t').BoolVar(&c.tty)
	c.Cmd.Flag("timeout", "Kill the program after this duration (e.g. 30s).").DurationVar(&c.timeout)
	c.Cmd.Flag("no-record", "Do not record the run in the history.").BoolVar(&c.noRecord)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Load the base configuration from the profile when one is given.
	var (
		baseSource model.SourceSpec
		spec       model.RunSpec
	)
	if c.profile != "" {
		profile, err := c.loadProfile(ctx)
		if err != nil {
			return fmt.Errorf("could not load profile: %w", err)
		}
		baseSource = profile.Source
		spec = profile.Spec
	}

	// Resolve where the program bytes come from.
	srcSpec, progArgs, err := c.buildSourceSpec(baseSource)
	if err != nil {
		return err
	}

	// Flags override the profile values.
	if len(progArgs) > 0 {
		spec.Args = progArgs
	}
	if c.argv0 != "" {
		spec.Name = c.argv0
	}
	cliEnv, err := utilsenv.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}
	spec.Env = utilsenv.MergeMaps(spec.Env, cliEnv)
	if c.noHostEnv {
		spec.NoHostEnv = true
	}
	if c.workDir != "" {
		spec.WorkDir = c.workDir
	}

	// Stream wiring.
	for _, s := range []struct {
		flag  string
		value string
		dst   *model.StreamSpec
	}{
		{"stdin", c.stdinMode, &spec.Stdin},
		{"stdout", c.stdoutMode, &spec.Stdout},
		{"stderr", c.stderrMode, &spec.Stderr},
	} {
		if s.value == "" {
			continue
		}
		st, err := model.ParseStreamSpec(s.value)
		if err != nil {
			return fmt.Errorf("invalid --%s value: %w", s.flag, err)
		}
		*s.dst = st
	}
	if c.capture {
		spec.Stdout = model.StreamSpec{Mode: model.StreamCapture}
		spec.Stderr = model.StreamSpec{Mode: model.StreamCapture}
	}
	if c.tty {
		spec.TTY = true
	}
	if c.timeout > 0 {
		spec.Timeout = c.timeout
	}

	// Initialize the source.
	src, err := c.newSource(srcSpec, logger)
	if err != nil {
		return fmt.Errorf("could not create source: %w", err)
	}

	// Initialize storage. The history database is only touched when the
	// run gets recorded.
	var repo storage.Repository
	if c.noRecord {
		repo, err = memory.NewRepository(memory.RepositoryConfig{Logger: logger})
	} else {
		repo, err = sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.rootCmd.DBPath,
			Logger: logger,
		})
	}
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	// Initialize the runner.
	r, err := runner.NewExec(runner.ExecConfig{
		Stdin:  c.rootCmd.Stdin,
		Stdout: c.rootCmd.Stdout,
		Stderr: c.rootCmd.Stderr,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create runner: %w", err)
	}

	// Create run service.
	svc, err := apprun.NewService(apprun.ServiceConfig{
		Runner:     r,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute run.
	resp, err := svc.Run(ctx, apprun.Request{
		Source:   src,
		Spec:     spec,
		NoRecord: c.noRecord,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotValid) {
			return fmt.Errorf("invalid run configuration: %w", err)
		}
		// Programs that cannot be fetched or started leave through the
		// shell convention for "command cannot execute".
		fmt.Fprintf(c.rootCmd.Stderr, "Error: %s\n", err)
		os.Exit(126)
	}

	// The calling shell sees the same termination the program had.
	code := resp.Result.ExitCode
	if resp.Result.Signal != 0 {
		code = 128 + resp.Result.Signal
	}
	os.Exit(code)
	return nil
}

// buildSourceSpec resolves the program source from the flags and the
// positional arguments, and returns the arguments passed to the program.
func (c RunCommand) buildSourceSpec(base model.SourceSpec) (model.SourceSpec, []string, error) {
	args := c.positionals

	switch {
	case c.url != "" && c.imageRef != "":
		return model.SourceSpec{}, nil, fmt.Errorf("--url and --image cannot be combined")

	case c.url != "":
		return model.SourceSpec{URL: c.url}, args, nil

	case c.imageRef != "":
		if c.imagePath == "" {
			return model.SourceSpec{}, nil, fmt.Errorf("--image-path is required with --image")
		}
		return model.SourceSpec{Image: &model.ImageSourceSpec{Ref: c.imageRef, Path: c.imagePath}}, args, nil

	case c.profile != "":
		return base, args, nil
	}

	if len(args) == 0 {
		return model.SourceSpec{}, nil, fmt.Errorf("a program file (or - for stdin), --url, --image or --profile is required")
	}

	program := args[0]
	args = args[1:]
	if program == "-" {
		return model.SourceSpec{Stdin: true}, args, nil
	}
	return model.SourceSpec{File: program}, args, nil
}

// newSource initializes the source implementation for the resolved spec.
func (c RunCommand) newSource(srcSpec model.SourceSpec, logger log.Logger) (source.Source, error) {
	switch {
	case srcSpec.File != "":
		return source.NewFileSource(source.FileSourceConfig{
			Path:   srcSpec.File,
			Logger: logger,
		})

	case srcSpec.URL != "":
		// The progress bar goes to stderr, and only when it is a real
		// terminal, so piped and captured output stays clean.
		var progress io.Writer
		if f, ok := c.rootCmd.Stderr.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			progress = c.rootCmd.Stderr
		}
		return source.NewHTTPSource(source.HTTPSourceConfig{
			URL:            srcSpec.URL,
			ProgressOutput: progress,
			Logger:         logger,
		})

	case srcSpec.Image != nil:
		return source.NewImageSource(source.ImageSourceConfig{
			Ref:    srcSpec.Image.Ref,
			Path:   srcSpec.Image.Path,
			Logger: logger,
		})

	case srcSpec.Stdin:
		return source.NewReaderSource(source.ReaderSourceConfig{
			Reader: c.rootCmd.Stdin,
			Logger: logger,
		})
	}

	return nil, fmt.Errorf("no program source specified")
}

// loadProfile resolves the profile flag to a YAML file and loads it.
// Values with a path separator or a YAML extension are used as file
// paths, anything else is looked up in the data directory.
func (c RunCommand) loadProfile(ctx context.Context) (model.Profile, error) {
	path := c.profile
	ext := filepath.Ext(path)
	if !strings.ContainsRune(path, os.PathSeparator) && ext != ".yaml" && ext != ".yml" {
		path = conventions.ProfilePath(dataDir(), path)
	}

	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	repo := storageio.NewProfileYAMLRepository(os.DirFS(dir))
	return repo.GetProfile(ctx, file)
}
