/**
 * HTTP transport for the verification service.
 *
 * Thin layer: handlers validate transport concerns (auth, file type, size)
 * and delegate to the pipeline, auth service and stores. Business logic
 * stays out of this package.
 */

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uhakiki/verification-engine/internal/auth"
	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/metrics"
	"github.com/uhakiki/verification-engine/internal/pipeline"
	"github.com/uhakiki/verification-engine/internal/queue"
	"github.com/uhakiki/verification-engine/internal/storage"
)

// Server wires the HTTP surface to the verification core and its
// collaborators. store and enqueuer may be nil when the platform runs
// without PostgreSQL or Redis; the affected endpoints degrade explicitly.
type Server struct {
	pipeline  *pipeline.Pipeline
	auth      *auth.Service
	store     *storage.PostgresClient
	enqueuer  *queue.Enqueuer
	metrics   *metrics.Metrics
	log       *logging.Logger
	maxUpload int64
}

// Config collects the server dependencies.
type Config struct {
	Pipeline       *pipeline.Pipeline
	Auth           *auth.Service
	Store          *storage.PostgresClient
	Enqueuer       *queue.Enqueuer
	Metrics        *metrics.Metrics
	Logger         *logging.Logger
	MaxUploadBytes int64
}

// New builds a Server.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Server{
		pipeline:  cfg.Pipeline,
		auth:      cfg.Auth,
		store:     cfg.Store,
		enqueuer:  cfg.Enqueuer,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		maxUpload: maxUpload,
	}
}

// Router wires all public endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestID)
	r.Use(s.logRequests)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Admin portal endpoints: company onboarding and key issuance.
	r.Route("/portal", func(r chi.Router) {
		r.Post("/register_company", s.handleRegisterCompany)
		r.Post("/generate_key", s.handleGenerateKey)
	})

	// Public v1 API for client integration, API-key protected.
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/verify_document", s.handleVerifyDocument)
		r.Post("/verify_async", s.handleVerifyAsync)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
	})

	return r
}
