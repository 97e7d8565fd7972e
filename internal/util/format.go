// Package util holds formatting helpers shared by the CLI and the log lines.
package util

import (
	"fmt"
	"unicode/utf8"
)

// FormatBytes formats a byte count into a human-readable string with appropriate units.
func FormatBytes(bytes int64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KiB", "MiB", "GiB", "TiB", "PiB"}

	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// Truncate shortens s to at most max runes, marking the cut with "...".
// Commands and stderr can be large; log fields stay bounded.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	const ellipsis = "..."

	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}

	return string([]rune(s)[:max-len(ellipsis)]) + ellipsis
}
