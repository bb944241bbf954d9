package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds the basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig sets the log level ("debug", "info", "warn", "error").
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// RateLimiterConfig enables the token-bucket middleware on the HTTP surface.
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// OllamaConfig holds the local inference endpoint defaults and the generation
// parameters forwarded opaquely with every chat request.
type OllamaConfig struct {
	URL         string  `yaml:"url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	NumCtx      int     `yaml:"numCtx"`
	NumPredict  int     `yaml:"numPredict"`
	TimeoutSec  int     `yaml:"timeoutSec"` // per-request transport timeout
}

// ScanConfig tunes the chunking and batching of the PII scan.
//
// concurrency is also the strictness knob for cross-chunk context: with
// concurrency 1 every chunk sees all values discovered before it, at the cost
// of fully serial model calls.
type ScanConfig struct {
	ChunkSize         int  `yaml:"chunkSize"`
	Overlap           int  `yaml:"overlap"`
	Concurrency       int  `yaml:"concurrency"`
	KnownValuesWindow int  `yaml:"knownValuesWindow"`
	StrictFilter      bool `yaml:"strictFilter"`
}

// ExtractConfig tunes document extraction and the OCR fallback.
type ExtractConfig struct {
	OCREnabled    bool    `yaml:"ocrEnabled"`
	OCRModel      string  `yaml:"ocrModel"` // vision model served by ollama
	MinTextLength int     `yaml:"minTextLength"`
	UpscaleFactor float64 `yaml:"upscaleFactor"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Server      ServerConfig      `yaml:"server"`
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Scan        ScanConfig        `yaml:"scan"`
	Extract     ExtractConfig     `yaml:"extract"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8085"
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = "http://localhost:11434"
	}
	if c.Ollama.TimeoutSec == 0 {
		c.Ollama.TimeoutSec = 120
	}
	if c.Scan.ChunkSize == 0 {
		c.Scan.ChunkSize = 4000
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 3
	}
	if c.Scan.KnownValuesWindow == 0 {
		c.Scan.KnownValuesWindow = 50
	}
	if c.Extract.MinTextLength == 0 {
		c.Extract.MinTextLength = 50
	}
	if c.Extract.UpscaleFactor == 0 {
		c.Extract.UpscaleFactor = 2.0
	}
}

func (c *AppConfig) validate() error {
	if c.Scan.Overlap >= c.Scan.ChunkSize {
		return fmt.Errorf("scan.overlap (%d) must be smaller than scan.chunkSize (%d)",
			c.Scan.Overlap, c.Scan.ChunkSize)
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be at least 1")
	}
	return nil
}
