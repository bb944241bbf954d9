package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"piiscan/internal/models"
	"piiscan/pkg/logger"
)

// Prober is the OCR fallback capability: recognize the text on the
// document's first page.
type Prober interface {
	FirstPage(ctx context.Context, raw []byte) (string, error)
}

type formatKind int

const (
	formatPDF formatKind = iota
	formatDOCX
	formatXLSX
	formatText
)

// Dispatcher selects a decode strategy for an uploaded document and composes
// the form-field, text-layer, and OCR steps into one ExtractionResult.
type Dispatcher struct {
	prober     Prober // nil disables the OCR fallback
	minTextLen int    // OCR trigger threshold, non-whitespace characters
	log        *logger.Logger
}

// NewDispatcher creates a Dispatcher. prober may be nil to disable OCR.
func NewDispatcher(prober Prober, minTextLen int, log *logger.Logger) *Dispatcher {
	return &Dispatcher{prober: prober, minTextLen: minTextLen, log: log}
}

// Extract decodes the document and returns its context header and body text.
// Decode failures in the pdf/docx/xlsx branches surface as *models.DecodeError
// and are never masked by the plain-text fallback; only documents whose type
// is unrecognized take the generic UTF-8 branch.
func (d *Dispatcher) Extract(ctx context.Context, doc models.Document) (*models.ExtractionResult, error) {
	switch detectFormat(doc) {
	case formatPDF:
		return d.extractStructured(ctx, doc)
	case formatDOCX:
		body, err := extractDOCX(doc.Raw)
		if err != nil {
			return nil, err
		}
		// Flow format: one whole-document block, no page concept.
		return &models.ExtractionResult{BodyText: strings.TrimSpace(body)}, nil
	case formatXLSX:
		return extractTabular(doc.Raw)
	default:
		return &models.ExtractionResult{
			BodyText: strings.ToValidUTF8(string(doc.Raw), "�"),
		}, nil
	}
}

// detectFormat routes by declared MIME type, then extension, then content
// sniffing when both are inconclusive.
func detectFormat(doc models.Document) formatKind {
	declared := strings.ToLower(doc.MimeType)
	ext := strings.ToLower(filepath.Ext(doc.Name))

	switch {
	case strings.Contains(declared, "pdf") || ext == ".pdf":
		return formatPDF
	case strings.Contains(declared, "wordprocessingml") || ext == ".docx":
		return formatDOCX
	case strings.Contains(declared, "spreadsheetml") ||
		strings.Contains(declared, "ms-excel") ||
		ext == ".xlsx" || ext == ".xlsm":
		return formatXLSX
	}

	switch m := mimetype.Detect(doc.Raw); {
	case m.Is("application/pdf"):
		return formatPDF
	case m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return formatDOCX
	case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return formatXLSX
	}
	return formatText
}

// extractStructured handles the form-capable layout branch: form-field
// header, per-page text layer, and the OCR probe for low-density documents.
func (d *Dispatcher) extractStructured(ctx context.Context, doc models.Document) (*models.ExtractionResult, error) {
	header, err := formHeader(doc.Raw)
	if err != nil {
		// Whole-extractor failure is non-fatal: skip the header entirely.
		if d.log != nil {
			d.log.WithError(err).WithField("file", doc.Name).Warn("form extraction skipped")
		}
		header = ""
	}

	units, err := pdfTextLayer(doc.Raw)
	if err != nil {
		return nil, err
	}

	res := &models.ExtractionResult{
		ContextHeader: header,
		BodyText:      joinPages(units),
		PageUnits:     units,
	}

	if d.prober != nil && needsOCR(res.BodyText, len(res.PageUnits), d.minTextLen) {
		d.probeFirstPage(ctx, doc, res)
	}
	return res, nil
}

// needsOCR reports whether the text layer is too thin to scan: fewer than
// min non-whitespace characters across a document that does have pages.
func needsOCR(body string, pages, min int) bool {
	if pages == 0 {
		return false
	}
	stripped := strings.Join(strings.Fields(body), "")
	return len(stripped) < min
}

// probeFirstPage runs the single-page OCR fallback. Failures become an
// inline diagnostic in the context header; extraction continues with
// whatever text is already available.
func (d *Dispatcher) probeFirstPage(ctx context.Context, doc models.Document, res *models.ExtractionResult) {
	text, err := d.prober.FirstPage(ctx, doc.Raw)
	if err != nil {
		if d.log != nil {
			d.log.WithError(err).WithField("file", doc.Name).Warn("ocr fallback failed")
		}
		diag := fmt.Sprintf("[OCR unavailable: %v]", err)
		if res.ContextHeader == "" {
			res.ContextHeader = diag
		} else {
			res.ContextHeader += "\n" + diag
		}
		return
	}

	res.PageUnits = append(res.PageUnits, models.PageUnit{
		Index:  1,
		Text:   text,
		Source: models.SourceOCR,
	})
	block := "--- Page 1 (OCR) ---\n" + text
	if res.BodyText == "" {
		res.BodyText = block
	} else {
		res.BodyText += "\n\n" + block
	}
}

// joinPages concatenates page blocks in source order. Pages without an
// extractable text run keep their place with a placeholder label.
func joinPages(units []models.PageUnit) string {
	blocks := make([]string, 0, len(units))
	for _, u := range units {
		if u.Source == models.SourceUnscanned {
			blocks = append(blocks, fmt.Sprintf("--- Page %d ---\n[Page %d: no extractable text]", u.Index, u.Index))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- Page %d ---\n%s", u.Index, strings.TrimSpace(u.Text)))
	}
	return strings.Join(blocks, "\n\n")
}
