package scan

import (
	"regexp"
	"strings"
)

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{4,}`)
)

// Normalize canonicalizes extracted text before chunking: line endings become
// "\n", non-breaking spaces become ordinary spaces, runs of horizontal
// whitespace collapse to one space, runs of three or more blank lines
// collapse to exactly one blank line, and the result is trimmed.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = horizontalWS.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
