package models

// Document is an uploaded file as received from the transport. Immutable input.
type Document struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Raw      []byte `json:"-"`
}

// PageSource tells where a page unit's text came from.
type PageSource string

const (
	SourceText      PageSource = "text"
	SourceOCR       PageSource = "ocr"
	SourceUnscanned PageSource = "unscanned"
)

// PageUnit is the extracted text of one page (or one sheet) in document order.
type PageUnit struct {
	Index  int        `json:"index"`
	Text   string     `json:"text"`
	Source PageSource `json:"source"`
}

// ExtractionResult is the output of one document extraction. It lives for the
// duration of a single request and is discarded after the scan stage consumes it.
type ExtractionResult struct {
	ContextHeader string     `json:"context_header"`
	BodyText      string     `json:"body_text"`
	PageUnits     []PageUnit `json:"page_units"`
}

// Text returns the context header and body joined for downstream scanning.
func (r *ExtractionResult) Text() string {
	if r.ContextHeader == "" {
		return r.BodyText
	}
	if r.BodyText == "" {
		return r.ContextHeader
	}
	return r.ContextHeader + "\n\n" + r.BodyText
}
