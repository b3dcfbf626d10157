package utils

import (
	"regexp"
	"strings"
)

// Spreadsheet exports leak `_x000D_` markers and raw CR/LF into labels.
var (
	controlSeqRe = regexp.MustCompile(`_x000D_|[\n\r]+`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// CleanLabel strips control sequences, collapses runs of whitespace and
// trims. Applied once at load time so matching never deals with raw text.
func CleanLabel(s string) string {
	s = controlSeqRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContainsFold reports whether s contains substr, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
