package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Options are the generation parameters forwarded opaquely with every
// request. The pipeline does not interpret them.
type Options struct {
	Temperature float64
	NumCtx      int
	NumPredict  int
	Timeout     time.Duration
}

// Ollama is a chat client for a locally hosted Ollama endpoint.
type Ollama struct {
	client *ollama.Client
	model  string
	opts   Options
}

// NewOllama creates a client for the given base URL and model. An empty
// baseURL falls back to the default local endpoint.
func NewOllama(baseURL, model string, opts Options) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	hc := &http.Client{Timeout: opts.Timeout}
	return &Ollama{
		client: ollama.NewClient(parsed, hc),
		model:  model,
		opts:   opts,
	}, nil
}

// Chat sends one non-streaming chat request and returns the response content.
func (o *Ollama) Chat(ctx context.Context, system, user string) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model: o.model,
		Messages: []ollama.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  &stream,
		Options: o.requestOptions(),
	}

	var content string
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return content, nil
}

// Generate sends one non-streaming generate request, optionally with image
// attachments for vision models.
func (o *Ollama) Generate(ctx context.Context, prompt string, images [][]byte) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: o.requestOptions(),
	}
	for _, img := range images {
		req.Images = append(req.Images, ollama.ImageData(img))
	}

	var content string
	err := o.client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
		content = resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return content, nil
}

func (o *Ollama) requestOptions() map[string]any {
	opts := map[string]any{
		"temperature": o.opts.Temperature,
	}
	if o.opts.NumCtx > 0 {
		opts["num_ctx"] = o.opts.NumCtx
	}
	if o.opts.NumPredict > 0 {
		opts["num_predict"] = o.opts.NumPredict
	}
	return opts
}
