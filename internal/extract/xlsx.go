package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"piiscan/internal/models"
)

// extractTabular renders each sheet of a workbook as a tab-separated text
// table prefixed with the sheet name. Sheets that produce no output are
// skipped; sheets whose rows cannot be read are skipped likewise.
func extractTabular(raw []byte) (*models.ExtractionResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &models.DecodeError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	var blocks []string
	var units []models.PageUnit
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}

		blocks = append(blocks, "--- Sheet: "+sheet+" ---\n"+text)
		units = append(units, models.PageUnit{
			Index:  len(units) + 1,
			Text:   text,
			Source: models.SourceText,
		})
	}

	return &models.ExtractionResult{
		BodyText:  strings.Join(blocks, "\n\n"),
		PageUnits: units,
	}, nil
}
