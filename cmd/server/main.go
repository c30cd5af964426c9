/**
 * UhakikiAI verification API - main entry point.
 *
 * Wires the verification pipeline to its collaborators and serves the
 * public v1 API plus the admin portal. PostgreSQL and Redis are optional:
 * without PostgreSQL the registry cross-reference fails open and platform
 * persistence is skipped; without Redis the async endpoints are disabled.
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/uhakiki/verification-engine/internal/auth"
	"github.com/uhakiki/verification-engine/internal/config"
	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/metrics"
	"github.com/uhakiki/verification-engine/internal/ocr"
	"github.com/uhakiki/verification-engine/internal/pipeline"
	"github.com/uhakiki/verification-engine/internal/queue"
	"github.com/uhakiki/verification-engine/internal/registry"
	"github.com/uhakiki/verification-engine/internal/server"
	"github.com/uhakiki/verification-engine/internal/storage"
)

func main() {
	log := logging.NewLogger("server")

	if err := godotenv.Load(".env"); err != nil {
		log.Info(".env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Platform storage is optional; without it the registry check fails
	// open and usage logging is skipped.
	var store *storage.PostgresClient
	var reg registry.Registry
	var authStore auth.Store
	if cfg.DatabaseURL != "" {
		store, err = storage.NewPostgresClient(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		reg = registry.NewPostgres(store.DB())
		authStore = auth.NewPostgresStore(store.DB())
		log.Info("PostgreSQL connected")
	} else {
		log.Warn("DATABASE_URL not set: registry checks fail open, persistence disabled")
	}

	// OCR engine is process-wide state acquired once at startup. A probe
	// failure is logged but never fatal: per-request OCR failures degrade
	// to empty extracted text.
	tesseract := ocr.NewTesseract(&ocr.TesseractConfig{Language: cfg.TesseractLanguage})
	if err := tesseract.Probe(); err != nil {
		log.Warn("OCR engine probe failed, text extraction will degrade", "error", err)
	} else {
		log.Info("OCR engine ready", "language", cfg.TesseractLanguage)
	}
	extractor := ocr.NewExtractor(tesseract, cfg.Pipeline.BinarizeCutoff, log.WithPrefix("ocr"))

	pipe := pipeline.New(cfg.Pipeline, extractor, reg, log.WithPrefix("pipeline"))
	authService := auth.NewService(authStore, log.WithPrefix("auth"))
	m := metrics.New()

	var enqueuer *queue.Enqueuer
	if cfg.RedisURL != "" {
		enqueuer, err = queue.NewEnqueuer(cfg.RedisURL, cfg.QueueName)
		if err != nil {
			log.Error("failed to connect to Redis queue", "error", err)
			os.Exit(1)
		}
		defer enqueuer.Close()
		log.Info("async verification queue connected", "queue", cfg.QueueName)
	} else {
		log.Warn("REDIS_URL not set: async verification endpoints disabled")
	}

	srv := server.New(server.Config{
		Pipeline:       pipe,
		Auth:           authService,
		Store:          store,
		Enqueuer:       enqueuer,
		Metrics:        m,
		Logger:         log.WithPrefix("http"),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("verification API listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}

	log.Info("shutdown complete")
}
