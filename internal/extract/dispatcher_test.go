package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"piiscan/internal/models"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		doc  models.Document
		want formatKind
	}{
		{"declared pdf", models.Document{MimeType: "application/pdf"}, formatPDF},
		{"pdf extension", models.Document{Name: "report.PDF"}, formatPDF},
		{"declared docx", models.Document{MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, formatDOCX},
		{"docx extension", models.Document{Name: "letter.docx"}, formatDOCX},
		{"declared xlsx", models.Document{MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, formatXLSX},
		{"legacy excel type", models.Document{MimeType: "application/vnd.ms-excel"}, formatXLSX},
		{"sniffed pdf magic", models.Document{Raw: []byte("%PDF-1.4\nsome content")}, formatPDF},
		{"unknown defaults to text", models.Document{Name: "notes.log", Raw: []byte("plain text")}, formatText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectFormat(tc.doc); got != tc.want {
				t.Errorf("detectFormat() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExtractGenericTextBranch(t *testing.T) {
	d := NewDispatcher(nil, 50, nil)
	res, err := d.Extract(context.Background(), models.Document{
		Name: "notes.txt",
		Raw:  []byte("Contact: mario@example.com"),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.BodyText != "Contact: mario@example.com" {
		t.Errorf("BodyText = %q", res.BodyText)
	}
	if res.ContextHeader != "" || len(res.PageUnits) != 0 {
		t.Errorf("text branch produced header or page units: %+v", res)
	}
}

func TestExtractCorruptPDFIsTerminal(t *testing.T) {
	d := NewDispatcher(nil, 50, nil)
	_, err := d.Extract(context.Background(), models.Document{
		Name: "broken.pdf",
		Raw:  []byte("this is not a pdf at all"),
	})
	var decodeErr *models.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	// The failure must not be masked by the plain-text fallback.
	if decodeErr.Format != "pdf" {
		t.Errorf("Format = %q, want pdf", decodeErr.Format)
	}
}

func TestExtractTabular(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Email"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Mario Rossi", "mario@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	d := NewDispatcher(nil, 50, nil)
	res, err := d.Extract(context.Background(), models.Document{
		Name: "people.xlsx",
		Raw:  buf.Bytes(),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !strings.Contains(res.BodyText, "--- Sheet: Sheet1 ---") {
		t.Errorf("missing sheet label:\n%s", res.BodyText)
	}
	if !strings.Contains(res.BodyText, "Mario Rossi\tmario@example.com") {
		t.Errorf("missing tab-separated row:\n%s", res.BodyText)
	}
	// Sheets producing no output are skipped.
	if strings.Contains(res.BodyText, "Empty") {
		t.Errorf("empty sheet was not skipped:\n%s", res.BodyText)
	}
	if len(res.PageUnits) != 1 {
		t.Errorf("expected 1 sheet unit, got %+v", res.PageUnits)
	}
}

func TestNeedsOCRBoundary(t *testing.T) {
	thin := strings.Repeat("x", 30)
	dense := strings.Repeat("x", 1000)

	if !needsOCR(thin, 1, 50) {
		t.Error("30 non-whitespace characters with one page must trigger OCR")
	}
	if needsOCR(dense, 1, 50) {
		t.Error("1000 non-whitespace characters must not trigger OCR")
	}
	if needsOCR("", 0, 50) {
		t.Error("a document with no pages must not trigger OCR")
	}
	// Whitespace does not count toward the density threshold.
	padded := strings.Repeat("x ", 30)
	if !needsOCR(padded, 1, 50) {
		t.Error("whitespace must be stripped before measuring density")
	}
}

type fakeProber struct {
	text string
	err  error
}

func (f *fakeProber) FirstPage(context.Context, []byte) (string, error) {
	return f.text, f.err
}

func TestProbeFirstPageAppendsOCRBlock(t *testing.T) {
	d := NewDispatcher(&fakeProber{text: "Recognized words"}, 50, nil)
	res := &models.ExtractionResult{
		BodyText:  "thin",
		PageUnits: []models.PageUnit{{Index: 1, Source: models.SourceUnscanned}},
	}

	d.probeFirstPage(context.Background(), models.Document{Name: "scan.pdf"}, res)

	if !strings.Contains(res.BodyText, "--- Page 1 (OCR) ---\nRecognized words") {
		t.Errorf("OCR block missing:\n%s", res.BodyText)
	}
	last := res.PageUnits[len(res.PageUnits)-1]
	if last.Source != models.SourceOCR || last.Text != "Recognized words" {
		t.Errorf("OCR page unit not recorded: %+v", last)
	}
}

func TestProbeFirstPageFailureBecomesDiagnostic(t *testing.T) {
	d := NewDispatcher(&fakeProber{err: &models.OcrError{Stage: "raster", Err: models.ErrNoRaster}}, 50, nil)
	res := &models.ExtractionResult{
		BodyText:  "thin",
		PageUnits: []models.PageUnit{{Index: 1, Source: models.SourceUnscanned}},
	}

	d.probeFirstPage(context.Background(), models.Document{Name: "scan.pdf"}, res)

	if !strings.Contains(res.ContextHeader, "[OCR unavailable:") {
		t.Errorf("diagnostic missing from context header: %q", res.ContextHeader)
	}
	// Extraction continues with whatever text was already available.
	if res.BodyText != "thin" {
		t.Errorf("body text changed on OCR failure: %q", res.BodyText)
	}
}

func TestJoinPagesKeepsUnscannedPlaceholders(t *testing.T) {
	body := joinPages([]models.PageUnit{
		{Index: 1, Text: "first page text", Source: models.SourceText},
		{Index: 2, Source: models.SourceUnscanned},
	})
	if !strings.Contains(body, "--- Page 1 ---\nfirst page text") {
		t.Errorf("page 1 block malformed:\n%s", body)
	}
	if !strings.Contains(body, "[Page 2: no extractable text]") {
		t.Errorf("unscanned placeholder missing:\n%s", body)
	}
}
