package domain

import (
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns a line-oriented unified diff from original to modified.
// Inputs with the same lines yield an empty string; a trailing newline or a
// CRLF line ending alone is not a change.
func UnifiedDiff(original, modified string) string {
	a, b := splitLines(original), splitLines(modified)
	if slices.Equal(a, b) {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "original",
		ToFile:   "modified",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// splitLines splits s into newline-terminated lines. The final line break is
// optional and "\r\n" counts as one break.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = strings.TrimSuffix(p, "\r") + "\n"
	}
	return lines
}
