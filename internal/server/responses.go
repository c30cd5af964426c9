package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uhakiki/verification-engine/internal/verrors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError centralizes service-error translation to HTTP responses so every
// handler emits the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var svcErr *verrors.Error
	if !errors.As(err, &svcErr) {
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case verrors.CodeUnsupportedFormat:
		status = http.StatusBadRequest
	case verrors.CodeMissingAPIKey:
		status = http.StatusForbidden
	case verrors.CodeInvalidAPIKey:
		status = http.StatusUnauthorized
	case verrors.CodeJobNotFound:
		status = http.StatusNotFound
	case verrors.CodeQueueUnavailable, verrors.CodeRegistryUnavailable:
		status = http.StatusServiceUnavailable
	case verrors.CodeStorageFailed:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{
		"error":  string(svcErr.Code),
		"detail": svcErr.Message,
	})
}
