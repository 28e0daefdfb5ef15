package printer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/printer"
)

func runFixture() model.Run {
	createdAt := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)
	finishedAt := createdAt.Add(3 * time.Second)
	return model.Run{
		ID:         "01K5D2V7MBJ2XHQW4R8T9N0ZAB",
		Name:       "tool",
		Args:       []string{"-v", "--color"},
		Origin:     "https://example.com/bin/tool",
		Digest:     "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		SizeBytes:  2048,
		PID:        4242,
		Status:     model.RunStatusCompleted,
		ExitCode:   0,
		CreatedAt:  createdAt,
		FinishedAt: &finishedAt,
	}
}

func TestTablePrinterPrintRunStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintRunStatus(runFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Name:       tool")
	assert.Contains(t, out, "Args:       -v --color")
	assert.Contains(t, out, "Origin:     https://example.com/bin/tool")
	assert.Contains(t, out, "Size:       2.0 KB")
	assert.Contains(t, out, "Exit code:  0")
	assert.Contains(t, out, "Duration:   3s")
}

func TestTablePrinterPrintRunStatusSignaled(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	run := runFixture()
	run.Status = model.RunStatusSignaled
	run.ExitCode = -1
	run.Signal = 9

	err := p.PrintRunStatus(run)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Signal:     9")
	assert.NotContains(t, out, "Exit code:")
}

func TestTablePrinterPrintRunList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	signaled := runFixture()
	signaled.ID = "01K5D2V7MBJ2XHQW4R8T9N0ZAC"
	signaled.Status = model.RunStatusSignaled
	signaled.ExitCode = -1
	signaled.Signal = 15

	err := p.PrintRunList([]model.Run{runFixture(), signaled})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "sig 15")
}

func TestTablePrinterPrintRunListEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintRunList(nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestJSONPrinterPrintRunStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintRunStatus(runFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"id": "01K5D2V7MBJ2XHQW4R8T9N0ZAB"`)
	assert.Contains(t, out, `"origin": "https://example.com/bin/tool"`)
	assert.Contains(t, out, `"exit_code": 0`)
	assert.Contains(t, out, `"size_bytes": 2048`)
}

func TestJSONPrinterPrintRunList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintRunList([]model.Run{runFixture()})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"name": "tool"`)
	assert.Contains(t, out, `"status": "completed"`)
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintMessage("removed 3 runs")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message": "removed 3 runs"`)
}
