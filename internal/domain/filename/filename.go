// Package filename turns user-entered text into safe download file names.
package filename

import (
	"regexp"
	"strings"
)

var (
	unsafeRuns     = regexp.MustCompile(`[<>:"/\\|?*]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Sanitize makes segment safe to embed in a file name.
// Runs of <>:"/\|?* become "_", surrounding periods and spaces are trimmed
// and inner whitespace becomes "_". An empty result yields fallback.
// INVARIANT: Sanitize(Sanitize(s, f), f) == Sanitize(s, f)
func Sanitize(segment, fallback string) string {
	s := unsafeRuns.ReplaceAllString(segment, "_")
	// Trim periods and whitespace together so " .x. " settles in one pass.
	s = strings.Trim(s, ". \t\r\n\v\f")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	if s == "" {
		return fallback
	}
	return s
}
