package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/slok/memrun/internal/model"
)

// TablePrinter prints run information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRunList prints runs in a table format.
func (t *TablePrinter) PrintRunList(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tEXIT\tSIZE\tORIGIN\tCREATED")

	// Print rows.
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Name,
			r.Status,
			exitCell(r),
			FormatBytes(r.SizeBytes),
			r.Origin,
			TimeAgo(r.CreatedAt),
		)
	}

	return nil
}

// exitCell renders how a run ended for the list view.
func exitCell(r model.Run) string {
	switch {
	case r.Status == model.RunStatusFailed:
		return "-"
	case r.Signal != 0:
		return "sig " + strconv.Itoa(r.Signal)
	default:
		return strconv.Itoa(r.ExitCode)
	}
}

// PrintRunStatus prints the detailed record of a single run.
func (t *TablePrinter) PrintRunStatus(run model.Run) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", run.ID)
	fmt.Fprintf(t.writer, "Name:       %s\n", run.Name)

	if len(run.Args) > 0 {
		fmt.Fprintf(t.writer, "Args:       %s\n", strings.Join(run.Args, " "))
	}

	fmt.Fprintf(t.writer, "Status:     %s\n", run.Status)
	fmt.Fprintf(t.writer, "Origin:     %s\n", run.Origin)
	fmt.Fprintf(t.writer, "Digest:     %s\n", run.Digest)
	fmt.Fprintf(t.writer, "Size:       %s\n", FormatBytes(run.SizeBytes))

	if run.Status != model.RunStatusFailed {
		fmt.Fprintf(t.writer, "PID:        %d\n", run.PID)
		if run.Signal != 0 {
			fmt.Fprintf(t.writer, "Signal:     %d\n", run.Signal)
		} else {
			fmt.Fprintf(t.writer, "Exit code:  %d\n", run.ExitCode)
		}
	}

	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(run.CreatedAt))

	if run.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(*run.FinishedAt))
		fmt.Fprintf(t.writer, "Duration:   %s\n", FormatRunDuration(run))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
