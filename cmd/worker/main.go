/**
 * UhakikiAI verification worker - main entry point.
 *
 * Consumes async verification jobs from the Redis queue, runs the same
 * pipeline as the synchronous API, and persists verdicts to PostgreSQL.
 */

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/uhakiki/verification-engine/internal/config"
	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/metrics"
	"github.com/uhakiki/verification-engine/internal/ocr"
	"github.com/uhakiki/verification-engine/internal/pipeline"
	"github.com/uhakiki/verification-engine/internal/queue"
	"github.com/uhakiki/verification-engine/internal/registry"
	"github.com/uhakiki/verification-engine/internal/storage"
)

func main() {
	log := logging.NewLogger("worker")

	if err := godotenv.Load(".env"); err != nil {
		log.Info(".env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The worker is useless without its queue and result store.
	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required for the worker")
		os.Exit(1)
	}

	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tesseract := ocr.NewTesseract(&ocr.TesseractConfig{Language: cfg.TesseractLanguage})
	if err := tesseract.Probe(); err != nil {
		log.Warn("OCR engine probe failed, text extraction will degrade", "error", err)
	}
	extractor := ocr.NewExtractor(tesseract, cfg.Pipeline.BinarizeCutoff, log.WithPrefix("ocr"))

	pipe := pipeline.New(
		cfg.Pipeline,
		extractor,
		registry.NewPostgres(store.DB()),
		log.WithPrefix("pipeline"),
	)

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:     cfg.RedisURL,
		QueueName:    cfg.QueueName,
		Concurrency:  cfg.WorkerConcurrency,
		JobTimeoutMs: cfg.JobTimeoutMs,
		Pipeline:     pipe,
		Store:        store,
		Metrics:      metrics.New(),
		Logger:       log.WithPrefix("queue"),
	})
	if err != nil {
		log.Error("failed to initialize queue consumer", "error", err)
		os.Exit(1)
	}

	if err := consumer.Start(); err != nil {
		log.Error("failed to start queue consumer", "error", err)
		os.Exit(1)
	}
	log.Info("verification worker ready",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig)

	if err := consumer.Stop(); err != nil {
		log.Error("error stopping queue consumer", "error", err)
	}

	log.Info("shutdown complete")
}
