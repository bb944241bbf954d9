package scan

import "strings"

// DefaultSystemPrompt is used when the caller does not supply one. One line
// per discovery keeps the response parseable by the line grammar.
const DefaultSystemPrompt = `You are a PII detection engine. Scan the provided text for personally
identifiable information. Report every distinct value you find, one per line,
in the form [CATEGORY] value — for example [EMAIL] mario@example.com.
Use upper-case category tokens such as EMAIL, PHONE, NAME, SURNAME, ADDRESS,
TAX_CODE, IBAN, DATE_OF_BIRTH. Report nothing else.`

// buildUserPrompt assembles the per-chunk message: the already-known values
// (so the model does not re-extract them) followed by the chunk text. The
// known slice is the state snapshot taken before the chunk's batch was
// dispatched.
func buildUserPrompt(known []string, chunk string) string {
	var b strings.Builder
	if len(known) > 0 {
		b.WriteString("Values already found, do not report them again:\n")
		for _, v := range known {
			b.WriteString("- ")
			b.WriteString(v)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Text to scan:\n")
	b.WriteString(chunk)
	return b.String()
}
