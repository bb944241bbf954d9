package extract

import (
	"bytes"
	"strings"

	"github.com/unidoc/unioffice/v2/document"

	"piiscan/internal/models"
)

// extractDOCX reads a Word document as a single flow of text: paragraph runs
// concatenated in order, one line per paragraph.
func extractDOCX(raw []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &models.DecodeError{Format: "docx", Err: err}
	}

	var b strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
