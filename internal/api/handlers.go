package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"piiscan/internal/models"
	"piiscan/internal/scan"
	"piiscan/pkg/logger"
)

// Extractor is the document extraction stage consumed by the API.
type Extractor interface {
	Extract(ctx context.Context, doc models.Document) (*models.ExtractionResult, error)
}

// Scanner is the PII scan stage consumed by the API.
type Scanner interface {
	Scan(ctx context.Context, p scan.ScanParams) (*models.ScanResult, error)
}

// API holds the handlers for the extraction and scan entry points.
type API struct {
	extractor Extractor
	scanner   Scanner
	log       *logger.Logger
}

// NewAPI creates the handler set.
func NewAPI(extractor Extractor, scanner Scanner, log *logger.Logger) *API {
	return &API{extractor: extractor, scanner: scanner, log: log}
}

// ExtractRequest is the extraction entry point payload.
type ExtractRequest struct {
	FileBase64 string `json:"fileBase64" binding:"required"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
}

// ExtractResponse reports either the extracted text or a terminal error.
type ExtractResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExtractHandler decodes the uploaded file and returns its normalized text:
// context header plus body. A DecodeError is terminal for the document and
// reported with success=false.
func (a *API) ExtractHandler(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ExtractResponse{Error: "invalid request payload"})
		return
	}

	payload := req.FileBase64
	// Tolerate data-URL uploads from browser clients.
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, ExtractResponse{Error: "invalid fileBase64"})
		return
	}

	doc := models.Document{Name: req.FileName, MimeType: req.FileType, Raw: raw}
	res, err := a.extractor.Extract(c.Request.Context(), doc)
	if err != nil {
		var decodeErr *models.DecodeError
		if errors.As(err, &decodeErr) {
			a.log.WithError(err).WithField("file", req.FileName).Warn("document decode failed")
			c.JSON(http.StatusOK, ExtractResponse{Error: err.Error()})
			return
		}
		a.log.WithError(err).WithField("file", req.FileName).Error("extraction failed")
		c.JSON(http.StatusInternalServerError, ExtractResponse{Error: "extraction failed"})
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{Success: true, Text: res.Text()})
}

// ScanRequest is the PII scan entry point payload.
type ScanRequest struct {
	Text         string `json:"text"`
	URL          string `json:"url"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
}

// ScanResponse carries the ordered findings. FailedChunks distinguishes
// "nothing found" from "some chunks were silently lost".
type ScanResponse struct {
	Success      bool             `json:"success"`
	Findings     []models.Finding `json:"findings"`
	FailedChunks int              `json:"failedChunks"`
	Error        string           `json:"error,omitempty"`
}

// ScanHandler runs the chunked PII scan over the supplied text.
func (a *API) ScanHandler(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ScanResponse{Findings: []models.Finding{}, Error: "invalid request payload"})
		return
	}

	res, err := a.scanner.Scan(c.Request.Context(), scan.ScanParams{
		Text:         req.Text,
		URL:          req.URL,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		a.log.WithError(err).Error("scan failed")
		c.JSON(http.StatusOK, ScanResponse{Findings: []models.Finding{}, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ScanResponse{
		Success:      true,
		Findings:     res.Findings,
		FailedChunks: res.FailedChunks,
	})
}

// HealthHandler is the liveness probe.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
