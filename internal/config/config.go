/**
 * Configuration for the UhakikiAI verification engine.
 *
 * Loads configuration from environment variables matching .env.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds service configuration.
type Config struct {
	// HTTP server
	ListenAddr string

	// PostgreSQL configuration. Optional: when empty the service runs
	// without the registry and platform persistence (verdicts still work,
	// registry checks fail open).
	DatabaseURL string

	// Redis configuration for the async verification queue. Optional.
	RedisURL  string
	QueueName string

	// Worker configuration
	WorkerConcurrency int
	JobTimeoutMs      int

	// Upload limits
	MaxUploadBytes int64

	// Tesseract configuration
	TesseractLanguage string

	// Deployment environment (development, staging, production)
	Environment string

	// Pipeline holds the tuned verification constants.
	Pipeline Pipeline
}

// Pipeline externalizes every tuned constant of the verification pipeline so
// recalibration never touches control flow. Defaults match production tuning.
type Pipeline struct {
	// Forensic noise thresholds (grayscale population std-dev).
	// Below SyntheticNoiseMax the scan is flagged as probable synthetic
	// generation; below ManipulationNoiseMax as potential manipulation.
	SyntheticNoiseMax    float64
	ManipulationNoiseMax float64

	// Binarization cutoff applied before OCR, 0-255.
	BinarizeCutoff uint8

	// Penalties
	SyntheticPenalty     int
	ManipulationPenalty  int
	KeywordPenalty       int
	MissingIndexPenalty  int
	NameMismatchPenalty  int
	GradeMismatchPenalty int

	// Keyword heuristic vocabulary and the minimum number of terms that
	// must appear in the extracted text.
	Keywords          []string
	MinKeywordMatches int

	// RegistryGate skips the registry lookup once the accumulated score
	// reaches this value; a match can no longer change the outcome.
	RegistryGate int

	// Decision thresholds: score >= RejectThreshold is REJECTED,
	// score >= ReviewThreshold is MANUAL_REVIEW, anything lower VERIFIED.
	RejectThreshold int
	ReviewThreshold int
}

// DefaultPipeline returns the production pipeline tuning.
func DefaultPipeline() Pipeline {
	return Pipeline{
		SyntheticNoiseMax:    5.0,
		ManipulationNoiseMax: 12.0,
		BinarizeCutoff:       150,
		SyntheticPenalty:     40,
		ManipulationPenalty:  15,
		KeywordPenalty:       25,
		MissingIndexPenalty:  50,
		NameMismatchPenalty:  50,
		GradeMismatchPenalty: 40,
		Keywords:             []string{"KENYA", "CERTIFICATE", "EXAMINATION"},
		MinKeywordMatches:    2,
		RegistryGate:         80,
		RejectThreshold:      70,
		ReviewThreshold:      30,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	pl := DefaultPipeline()
	pl.SyntheticNoiseMax = getEnvAsFloatOrDefault("NOISE_SYNTHETIC_MAX", pl.SyntheticNoiseMax)
	pl.ManipulationNoiseMax = getEnvAsFloatOrDefault("NOISE_MANIPULATION_MAX", pl.ManipulationNoiseMax)
	pl.BinarizeCutoff = uint8(getEnvAsIntOrDefault("BINARIZE_CUTOFF", int(pl.BinarizeCutoff)))
	pl.SyntheticPenalty = getEnvAsIntOrDefault("PENALTY_SYNTHETIC", pl.SyntheticPenalty)
	pl.ManipulationPenalty = getEnvAsIntOrDefault("PENALTY_MANIPULATION", pl.ManipulationPenalty)
	pl.KeywordPenalty = getEnvAsIntOrDefault("PENALTY_KEYWORDS", pl.KeywordPenalty)
	pl.MissingIndexPenalty = getEnvAsIntOrDefault("PENALTY_MISSING_INDEX", pl.MissingIndexPenalty)
	pl.NameMismatchPenalty = getEnvAsIntOrDefault("PENALTY_NAME_MISMATCH", pl.NameMismatchPenalty)
	pl.GradeMismatchPenalty = getEnvAsIntOrDefault("PENALTY_GRADE_MISMATCH", pl.GradeMismatchPenalty)
	pl.Keywords = getEnvAsListOrDefault("KEYWORD_VOCABULARY", pl.Keywords)
	pl.MinKeywordMatches = getEnvAsIntOrDefault("MIN_KEYWORD_MATCHES", pl.MinKeywordMatches)
	pl.RegistryGate = getEnvAsIntOrDefault("REGISTRY_GATE", pl.RegistryGate)
	pl.RejectThreshold = getEnvAsIntOrDefault("REJECT_THRESHOLD", pl.RejectThreshold)
	pl.ReviewThreshold = getEnvAsIntOrDefault("REVIEW_THRESHOLD", pl.ReviewThreshold)

	cfg := &Config{
		ListenAddr:        getEnvOrDefault("LISTEN_ADDR", ":8000"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "verify:jobs"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		JobTimeoutMs:      getEnvAsIntOrDefault("JOB_TIMEOUT_MS", 120000),      // 2 minutes
		MaxUploadBytes:    getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 10485760), // 10MB
		TesseractLanguage: getEnvOrDefault("TESSERACT_LANGUAGE", "eng"),
		Environment:       getEnvOrDefault("APP_ENV", "development"),
		Pipeline:          pl,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1KB, got %d", c.MaxUploadBytes)
	}

	return c.Pipeline.Validate()
}

// Validate checks the pipeline tuning for internal consistency.
func (p Pipeline) Validate() error {
	if p.SyntheticNoiseMax >= p.ManipulationNoiseMax {
		return fmt.Errorf("NOISE_SYNTHETIC_MAX (%.2f) must be below NOISE_MANIPULATION_MAX (%.2f)",
			p.SyntheticNoiseMax, p.ManipulationNoiseMax)
	}

	if p.ReviewThreshold >= p.RejectThreshold {
		return fmt.Errorf("REVIEW_THRESHOLD (%d) must be below REJECT_THRESHOLD (%d)",
			p.ReviewThreshold, p.RejectThreshold)
	}

	if p.RegistryGate < 1 {
		return fmt.Errorf("REGISTRY_GATE must be positive, got %d", p.RegistryGate)
	}

	if len(p.Keywords) == 0 {
		return fmt.Errorf("KEYWORD_VOCABULARY must not be empty")
	}

	if p.MinKeywordMatches < 1 || p.MinKeywordMatches > len(p.Keywords) {
		return fmt.Errorf("MIN_KEYWORD_MATCHES must be between 1 and %d, got %d",
			len(p.Keywords), p.MinKeywordMatches)
	}

	for _, penalty := range []int{
		p.SyntheticPenalty, p.ManipulationPenalty, p.KeywordPenalty,
		p.MissingIndexPenalty, p.NameMismatchPenalty, p.GradeMismatchPenalty,
	} {
		if penalty < 0 {
			return fmt.Errorf("penalties must be non-negative, got %d", penalty)
		}
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default.
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default.
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault gets a comma-separated environment variable or returns default.
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, strings.ToUpper(trimmed))
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
