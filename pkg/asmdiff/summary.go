package asmdiff

import (
	"fmt"
	"strings"
)

// Summary describes the differences in one line: the length change, then up
// to five new and removed instructions and up to three new and removed calls.
func Summary(stats Stats, lines1, lines2 []string) string {
	var parts []string

	switch d := len(lines2) - len(lines1); {
	case d > 0:
		parts = append(parts, fmt.Sprintf("Second version is %d lines longer", d))
	case d < 0:
		parts = append(parts, fmt.Sprintf("Second version is %d lines shorter", -d))
	default:
		parts = append(parts, "Both versions have the same number of lines")
	}

	parts = appendList(parts, "New instructions", stats.UniqueInstructionsAdded, 5)
	parts = appendList(parts, "Removed instructions", stats.UniqueInstructionsRemoved, 5)
	parts = appendList(parts, "New function calls", stats.UniqueCallsAdded, 3)
	parts = appendList(parts, "Removed function calls", stats.UniqueCallsRemoved, 3)

	return strings.Join(parts, " | ")
}

func appendList(parts []string, label string, items []string, limit int) []string {
	if len(items) == 0 {
		return parts
	}
	if len(items) <= limit {
		return append(parts, fmt.Sprintf("%s: %s", label, strings.Join(items, ", ")))
	}
	return append(parts, fmt.Sprintf("%s: %s (+%d more)", label, strings.Join(items[:limit], ", "), len(items)-limit))
}
