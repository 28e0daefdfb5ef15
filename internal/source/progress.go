package source

import (
	"fmt"
	"io"
	"strings"
)

// progressReader counts bytes as they stream through and renders a live
// progress line. When total is 0 or negative only the byte count is
// shown, no percentage.
type progressReader struct {
	r            io.Reader
	statusWriter io.Writer
	total        int64
	read         int64
}

func newProgressReader(r io.Reader, statusWriter io.Writer, total int64) *progressReader {
	return &progressReader{
		r:            r,
		statusWriter: statusWriter,
		total:        total,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	pr.printProgress()
	return n, err
}

// finish terminates the progress line with a newline.
func (pr *progressReader) finish() {
	fmt.Fprintln(pr.statusWriter)
}

func (pr *progressReader) printProgress() {
	if pr.total > 0 {
		pct := float64(pr.read) / float64(pr.total) * 100
		barWidth := 40
		filled := int(pct / 100 * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
		fmt.Fprintf(pr.statusWriter, "\r  [%s] %3.0f%% %s / %s", bar, pct, formatSize(pr.read), formatSize(pr.total))
	} else {
		fmt.Fprintf(pr.statusWriter, "\r  %s downloaded", formatSize(pr.read))
	}
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
