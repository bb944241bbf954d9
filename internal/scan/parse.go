package scan

import (
	"regexp"
	"strings"

	"piiscan/internal/models"
)

// findingLine matches one model output line of the form "[CATEGORY] value".
// The category is a bracketed run of upper-case letters and underscores;
// the value is everything after the closing bracket.
var findingLine = regexp.MustCompile(`^\[([A-Z_]+)\]\s*(.*)$`)

// placeholder shapes the strict filter rejects: bracketed or angled residue
// left by the model, and templated synthetic names.
var (
	placeholderResidue = regexp.MustCompile(`[\[\]<>{}]`)
	syntheticName      = regexp.MustCompile(`(?i)^(john|jane)\s+doe$`)
	placeholderWords   = []string{"example", "not specified", "unspecified", "placeholder", "n/a"}
)

// Parser extracts (category, value) pairs from raw model responses.
// With Strict set it additionally drops values that look like placeholders
// rather than data lifted from the document.
type Parser struct {
	Strict bool
}

// Parse processes a response line by line. Non-matching lines are expected
// model chatter and are silently ignored. A matching line is accepted when
// its trimmed value is longer than 2 characters; the category is normalized
// to upper case.
func (p Parser) Parse(raw string) []models.Finding {
	var out []models.Finding
	for _, line := range strings.Split(raw, "\n") {
		m := findingLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		if len([]rune(value)) <= 2 {
			continue
		}
		if p.Strict && looksLikePlaceholder(value) {
			continue
		}
		out = append(out, models.Finding{
			Category: strings.ToUpper(m[1]),
			Value:    value,
		})
	}
	return out
}

func looksLikePlaceholder(value string) bool {
	if placeholderResidue.MatchString(value) {
		return true
	}
	lower := strings.ToLower(value)
	for _, w := range placeholderWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return syntheticName.MatchString(value)
}
