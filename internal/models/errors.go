package models

import (
	"errors"
	"fmt"
)

// DecodeError means the document bytes could not be decoded by the selected
// branch. It is terminal: no partial text from a corrupt container is
// considered trustworthy, so extraction fails outright.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// OcrError is a render or recognition failure during the OCR fallback.
// Non-fatal: it becomes an inline diagnostic in the context header.
type OcrError struct {
	Stage string // "raster" or "recognize"
	Err   error
}

func (e *OcrError) Error() string {
	return fmt.Sprintf("ocr %s: %v", e.Stage, e.Err)
}

func (e *OcrError) Unwrap() error { return e.Err }

// FieldExtractionError is a per-field or whole-form-extractor failure.
// Non-fatal: the field (or the whole header) is skipped and text extraction
// proceeds.
type FieldExtractionError struct {
	Field string
	Err   error
}

func (e *FieldExtractionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("form extraction: %v", e.Err)
	}
	return fmt.Sprintf("form field %q: %v", e.Field, e.Err)
}

func (e *FieldExtractionError) Unwrap() error { return e.Err }

// ErrNoRaster is returned by the raster probe when the first page carries no
// embedded image to hand to the OCR capability.
var ErrNoRaster = errors.New("no embedded raster on probed page")
