package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"piiscan/internal/models"
)

// pdfTextLayer extracts the text run of every page in document order. A page
// with no extractable text is recorded as unscanned rather than omitted, so
// page numbering stays aligned with the source. The pdf library panics on
// malformed structures; those panics are converted to a DecodeError here.
func pdfTextLayer(raw []byte) (units []models.PageUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			units = nil
			err = &models.DecodeError{Format: "pdf", Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if rerr != nil {
		return nil, &models.DecodeError{Format: "pdf", Err: rerr}
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		unit := models.PageUnit{Index: i, Source: models.SourceText}
		text := pageText(reader.Page(i))
		if strings.TrimSpace(text) == "" {
			unit.Source = models.SourceUnscanned
		} else {
			unit.Text = text
		}
		units = append(units, unit)
	}
	return units, nil
}

// pageText reads one page's plain text. Failures on a single page degrade to
// an empty run (the page becomes unscanned) instead of failing the document.
func pageText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
