// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"fmt"
	"strings"
)

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// PreviewList joins at most n items with ", " and appends "(and N more)" when items
// were left out. The second result is the number of omitted items.
func PreviewList(items []string, n int) (string, int) {
	if n <= 0 || len(items) <= n {
		return strings.Join(items, ", "), 0
	}
	rest := len(items) - n
	return fmt.Sprintf("%s (and %d more)", strings.Join(items[:n], ", "), rest), rest
}
