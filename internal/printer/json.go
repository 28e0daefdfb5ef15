package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/memrun/internal/model"
)

// JSONPrinter prints run information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// runListItem represents a run in the list output (subset of fields).
type runListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	ExitCode  int       `json:"exit_code"`
	Signal    int       `json:"signal,omitempty"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

// runOutput represents the full run record output.
type runOutput struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Args       []string   `json:"args,omitempty"`
	Origin     string     `json:"origin"`
	Digest     string     `json:"digest"`
	SizeBytes  int64      `json:"size_bytes"`
	PID        int        `json:"pid"`
	Status     string     `json:"status"`
	ExitCode   int        `json:"exit_code"`
	Signal     int        `json:"signal"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintRunList prints runs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(runs []model.Run) error {
	items := make([]runListItem, len(runs))
	for i, r := range runs {
		items[i] = runListItem{
			ID:        r.ID,
			Name:      r.Name,
			Status:    string(r.Status),
			ExitCode:  r.ExitCode,
			Signal:    r.Signal,
			Origin:    r.Origin,
			CreatedAt: r.CreatedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintRunStatus prints the full run record in JSON format.
func (j *JSONPrinter) PrintRunStatus(run model.Run) error {
	output := runOutput{
		ID:        run.ID,
		Name:      run.Name,
		Args:      run.Args,
		Origin:    run.Origin,
		Digest:    run.Digest,
		SizeBytes: run.SizeBytes,
		PID:       run.PID,
		Status:    string(run.Status),
		ExitCode:  run.ExitCode,
		Signal:    run.Signal,
		CreatedAt: run.CreatedAt.UTC(),
	}

	if run.FinishedAt != nil {
		utcTime := run.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
