package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/memrun/internal/app/historyrm"
	"github.com/slok/memrun/internal/printer"
	"github.com/slok/memrun/internal/storage/sqlite"
)

type HistoryRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id  string
	all bool
}

// NewHistoryRmCommand returns the history rm command.
func NewHistoryRmCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryRmCommand {
	c := &HistoryRmCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("rm", "Remove runs from the history.")
	c.Cmd.Arg("id", "Run ID to remove.").StringVar(&c.id)
	c.Cmd.Flag("all", "Remove all recorded runs.").BoolVar(&c.all)

	return c
}

func (c HistoryRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryRmCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	// Create remove service.
	svc, err := historyrm.NewService(historyrm.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute remove.
	count, err := svc.Run(ctx, historyrm.Request{
		ID:  c.id,
		All: c.all,
	})
	if err != nil {
		return fmt.Errorf("could not remove runs: %w", err)
	}

	// Print success message.
	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	msg := fmt.Sprintf("Removed run: %s", c.id)
	if c.all {
		msg = fmt.Sprintf("Removed %d runs", count)
	}
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
