package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/memrun/internal/app/historylist"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/printer"
	"github.com/slok/memrun/internal/storage/sqlite"
)

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	statusFilter string
	format       string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List recorded runs.")
	c.Cmd.Flag("status", "Filter by status (completed, signaled, failed).").StringVar(&c.statusFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Parse status filter if provided.
	var statusFilter *model.RunStatus
	if c.statusFilter != "" {
		status := model.RunStatus(strings.ToLower(c.statusFilter))
		// Validate status value.
		switch status {
		case model.RunStatusCompleted, model.RunStatusSignaled, model.RunStatusFailed:
			statusFilter = &status
		default:
			return fmt.Errorf("invalid status filter: %s (must be: completed, signaled, failed)", c.statusFilter)
		}
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	// Create list service.
	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute list.
	runs, err := svc.Run(ctx, historylist.Request{
		StatusFilter: statusFilter,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintRunList(runs); err != nil {
		return fmt.Errorf("could not print run list: %w", err)
	}

	return nil
}
