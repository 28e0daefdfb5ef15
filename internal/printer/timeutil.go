package printer

import (
	"fmt"
	"time"

	"github.com/slok/memrun/internal/model"
)

// TimeAgo returns a human readable relative time string.
// Examples: "5 seconds ago", "2 minutes ago", "3 days ago".
func TimeAgo(t time.Time) string {
	diff := time.Now().UTC().Sub(t.UTC())
	if diff < 0 {
		return "in the future"
	}

	units := []struct {
		limit time.Duration
		div   time.Duration
		name  string
	}{
		{time.Minute, time.Second, "second"},
		{time.Hour, time.Minute, "minute"},
		{24 * time.Hour, time.Hour, "hour"},
	}

	for _, u := range units {
		if diff < u.limit {
			return relative(int(diff/u.div), u.name)
		}
	}

	return relative(int(diff/(24*time.Hour)), "day")
}

// relative renders an amount of time units as a relative phrase.
func relative(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatRunDuration renders how long a run took, "-" when it never
// finished.
func FormatRunDuration(r model.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}

	d := r.FinishedAt.Sub(r.CreatedAt)
	if d < 0 {
		d = 0
	}

	return d.Round(time.Millisecond).String()
}
