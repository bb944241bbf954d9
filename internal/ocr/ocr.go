// Package ocr implements the OCR fallback for documents whose text layer is
// too thin to scan. It is a coarse single-page probe: exactly one page — the
// first — is rasterized and recognized, regardless of how many pages the
// document has. That keeps the fallback's cost bounded and predictable;
// callers depend on this profile, so the probe must not silently grow into
// exhaustive multi-page OCR.
package ocr

import (
	"context"
	"fmt"

	"piiscan/internal/llm"
	"piiscan/internal/models"
)

// Recognizer turns a raster image of one rendered page into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

const recognitionPrompt = `Transcribe all text visible in this image.
Output only the transcribed text, preserving line breaks. Do not describe
the image or add commentary.`

// OllamaVision recognizes page rasters with a locally served vision model.
type OllamaVision struct {
	client *llm.Ollama
}

// NewOllamaVision creates a Recognizer backed by the given Ollama endpoint
// and vision model.
func NewOllamaVision(baseURL, model string, opts llm.Options) (*OllamaVision, error) {
	client, err := llm.NewOllama(baseURL, model, opts)
	if err != nil {
		return nil, err
	}
	return &OllamaVision{client: client}, nil
}

// Recognize sends the image to the vision model and returns its transcript.
func (v *OllamaVision) Recognize(ctx context.Context, image []byte) (string, error) {
	text, err := v.client.Generate(ctx, recognitionPrompt, [][]byte{image})
	if err != nil {
		return "", fmt.Errorf("vision model: %w", err)
	}
	return text, nil
}

// Probe extracts the first page's raster and runs it through the Recognizer.
type Probe struct {
	rec     Recognizer
	upscale float64
}

// NewProbe creates a Probe. upscale stretches the raster before recognition;
// values at or below 1 leave it untouched.
func NewProbe(rec Recognizer, upscale float64) *Probe {
	return &Probe{rec: rec, upscale: upscale}
}

// FirstPage recognizes the text on the document's first page. Raster and
// recognition failures come back as *models.OcrError so the caller can
// record them as diagnostics and carry on.
func (p *Probe) FirstPage(ctx context.Context, raw []byte) (string, error) {
	img, err := firstPageRaster(raw)
	if err != nil {
		return "", &models.OcrError{Stage: "raster", Err: err}
	}

	if scaled, err := upscaleImage(img, p.upscale); err == nil {
		img = scaled
	}
	// On scaling failure the original raster is still a valid input, so it
	// is sent as-is.

	text, err := p.rec.Recognize(ctx, img)
	if err != nil {
		return "", &models.OcrError{Stage: "recognize", Err: err}
	}
	return text, nil
}
