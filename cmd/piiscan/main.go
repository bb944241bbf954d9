package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"piiscan/internal/api"
	"piiscan/internal/config"
	"piiscan/internal/extract"
	"piiscan/internal/llm"
	"piiscan/internal/ocr"
	"piiscan/internal/scan"
	"piiscan/pkg/logger"
	"piiscan/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML configuration file")
	flag.Parse()
	if env := os.Getenv("PIISCAN_CONFIG"); env != "" {
		*configPath = env
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)
	serviceLogger := logger.New(cfg.App.Name, "")

	genOpts := llm.Options{
		Temperature: cfg.Ollama.Temperature,
		NumCtx:      cfg.Ollama.NumCtx,
		NumPredict:  cfg.Ollama.NumPredict,
		Timeout:     time.Duration(cfg.Ollama.TimeoutSec) * time.Second,
	}

	// OCR fallback is optional; extraction runs without it when disabled.
	var prober extract.Prober
	if cfg.Extract.OCREnabled {
		vision, err := ocr.NewOllamaVision(cfg.Ollama.URL, cfg.Extract.OCRModel, genOpts)
		if err != nil {
			serviceLogger.WithError(err).Fatal("Failed to create OCR recognizer")
		}
		prober = ocr.NewProbe(vision, cfg.Extract.UpscaleFactor)
	}

	dispatcher := extract.NewDispatcher(prober, cfg.Extract.MinTextLength, serviceLogger)

	scanService := scan.NewService(scan.Config{
		ChunkSize:         cfg.Scan.ChunkSize,
		Overlap:           cfg.Scan.Overlap,
		Concurrency:       cfg.Scan.Concurrency,
		KnownValuesWindow: cfg.Scan.KnownValuesWindow,
		Strict:            cfg.Scan.StrictFilter,
	}, cfg.Ollama.URL, cfg.Ollama.Model, genOpts, serviceLogger)

	var limiter ratelimiter.RateLimiter
	if cfg.RateLimiter.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.RateLimiter.Rate, cfg.RateLimiter.Capacity)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	apiHandler := api.NewAPI(dispatcher, scanService, serviceLogger)
	api.RegisterRoutes(router, apiHandler, limiter)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(err).Fatal("HTTP server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		serviceLogger.WithError(err).Fatal("Server forced to shutdown")
	}
	serviceLogger.Info("Server exited")
}
