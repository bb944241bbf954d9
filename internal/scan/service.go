package scan

import (
	"context"
	"fmt"

	"piiscan/internal/llm"
	"piiscan/internal/models"
	"piiscan/pkg/logger"
)

// ScanParams is one scan request. URL and Model override the configured
// endpoint defaults when non-empty; SystemPrompt overrides the built-in
// prompt template.
type ScanParams struct {
	Text         string
	URL          string
	Model        string
	SystemPrompt string
}

// Service runs PII scans against a configurable model endpoint. The caller
// factory is swappable so tests can plug in a mock transport.
type Service struct {
	cfg          Config
	defaultURL   string
	defaultModel string
	newCaller    func(url, model string) (Caller, error)
	log          *logger.Logger
}

// NewService creates a scan Service using the Ollama chat transport with the
// given generation options.
func NewService(cfg Config, defaultURL, defaultModel string, gen llm.Options, log *logger.Logger) *Service {
	return &Service{
		cfg:          cfg,
		defaultURL:   defaultURL,
		defaultModel: defaultModel,
		newCaller: func(url, model string) (Caller, error) {
			return llm.NewOllama(url, model, gen)
		},
		log: log,
	}
}

// Scan builds a transport for the requested endpoint and drives the batch
// scheduler over the text.
func (s *Service) Scan(ctx context.Context, p ScanParams) (*models.ScanResult, error) {
	url := p.URL
	if url == "" {
		url = s.defaultURL
	}
	model := p.Model
	if model == "" {
		model = s.defaultModel
	}

	caller, err := s.newCaller(url, model)
	if err != nil {
		return nil, fmt.Errorf("model transport: %w", err)
	}
	sched, err := NewScheduler(caller, s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	return sched.Scan(ctx, p.Text, p.SystemPrompt)
}
