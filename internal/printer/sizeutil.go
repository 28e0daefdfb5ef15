package printer

import "fmt"

// FormatBytes returns a human-readable byte size string.
// Examples: "0 B", "512 B", "1.5 KB", "700.0 MB", "10.0 GB".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	unit := ""
	for _, u := range []string{"KB", "MB", "GB", "TB"} {
		value /= 1024
		unit = u
		if value < 1024 {
			break
		}
	}

	return fmt.Sprintf("%.1f %s", value, unit)
}
