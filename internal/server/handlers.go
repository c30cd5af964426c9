package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uhakiki/verification-engine/internal/queue"
	"github.com/uhakiki/verification-engine/internal/storage"
	"github.com/uhakiki/verification-engine/internal/verrors"
)

// allowedUploadTypes is the caller-side file-type allow-list. The pipeline
// itself only requires that the bytes decode.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "UhakikiAI verification engine is online",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"detail": "database unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVerifyDocument is the primary endpoint: one credential image in, one
// risk-scored verdict out.
func (s *Server) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	data, _, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	verdict := s.pipeline.Verify(r.Context(), data)

	if s.metrics != nil {
		s.metrics.ObserveVerification(string(verdict.FinalDecision))
	}
	s.recordUsage(r, "/v1/verify_document", http.StatusOK, string(verdict.FinalDecision), verdict.RiskScore)

	writeJSON(w, http.StatusOK, verdict)
}

// handleVerifyAsync enqueues a verification job and returns immediately.
func (s *Server) handleVerifyAsync(w http.ResponseWriter, r *http.Request) {
	if s.enqueuer == nil || s.store == nil {
		writeError(w, verrors.NewQueueUnavailable())
		return
	}

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	jobID := uuid.NewString()
	companyID := CompanyID(r.Context())

	if err := s.store.UpsertJob(r.Context(), &storage.VerificationJob{
		ID:        jobID,
		CompanyID: companyID,
		Filename:  filename,
		Status:    storage.JobStatusQueued,
	}); err != nil {
		writeError(w, verrors.NewStorageFailed(RequestID(r.Context()), err))
		return
	}

	if err := s.enqueuer.EnqueueVerification(r.Context(), &queue.VerifyPayload{
		JobID:     jobID,
		CompanyID: companyID,
		Filename:  filename,
		Image:     data,
	}); err != nil {
		s.log.Error("failed to enqueue verification", "job_id", jobID, "error", err)
		writeError(w, verrors.NewQueueUnavailable())
		return
	}

	if s.metrics != nil {
		s.metrics.JobsEnqueuedTotal.Inc()
	}
	s.recordUsage(r, "/v1/verify_async", http.StatusAccepted, "", 0)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": storage.JobStatusQueued,
	})
}

// handleJobStatus returns the lifecycle state and, once completed, the
// verdict of an async job. Jobs are visible only to the company that
// submitted them.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, verrors.NewQueueUnavailable())
		return
	}

	jobID := chi.URLParam(r, "jobID")
	if _, err := uuid.Parse(jobID); err != nil {
		writeError(w, verrors.NewJobNotFound(jobID))
		return
	}

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, verrors.NewJobNotFound(jobID))
		return
	}

	if job.CompanyID != CompanyID(r.Context()) {
		writeError(w, verrors.NewJobNotFound(jobID))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleRegisterCompany onboards a new integrator company.
func (s *Server) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	if name == "" || email == "" {
		writeJSONError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	company, err := s.store.InsertCompany(r.Context(), name, email)
	if err != nil {
		s.log.Error("failed to register company", "email", email, "error", err)
		writeJSONError(w, http.StatusBadRequest, "failed to register company")
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

// handleGenerateKey issues an API key for a registered company. The raw key
// is shown exactly once.
func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" {
		writeJSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	rawKey, err := s.auth.GenerateKey(r.Context(), email)
	if err != nil {
		s.log.Error("failed to generate key", "email", email, "error", err)
		writeJSONError(w, http.StatusNotFound, "company not registered")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"api_key": rawKey,
		"message": "Save this key now. It won't be shown again.",
	})
}

// readUpload extracts and validates the multipart file upload.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", verrors.NewUnsupportedFormat(RequestID(r.Context()), "missing file field")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return nil, "", verrors.NewUnsupportedFormat(RequestID(r.Context()), contentType)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", verrors.NewUnsupportedFormat(RequestID(r.Context()), "unreadable upload")
	}

	return data, header.Filename, nil
}

// recordUsage writes a usage/billing row, best effort: a logging failure
// never blocks or fails the verification response.
func (s *Server) recordUsage(r *http.Request, endpoint string, status int, decision string, riskScore int) {
	if s.store == nil {
		return
	}

	entry := &storage.UsageLog{
		CompanyID:       CompanyID(r.Context()),
		RequestEndpoint: endpoint,
		ResponseStatus:  status,
		FraudVerdict:    decision,
		RiskScore:       riskScore,
		Timestamp:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.InsertUsageLog(ctx, entry); err != nil {
		s.log.Warn("usage logging failed", "endpoint", endpoint, "error", err)
	}
}
