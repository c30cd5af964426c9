/**
 * Coded error types for the verification service.
 *
 * Only the decode failure is fatal to a pipeline run; every other failure
 * class is absorbed into the verdict. These types exist for the surfaces
 * around the pipeline: transport, auth, storage and queue.
 */

package verrors

import (
	"fmt"
	"time"
)

// Code classifies a verification service error.
type Code string

const (
	// Request errors
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeInvalidAPIKey     Code = "INVALID_API_KEY"
	CodeMissingAPIKey     Code = "MISSING_API_KEY"

	// Pipeline errors
	CodeDecodeFailed Code = "DECODE_FAILED"
	CodeOCRFailed    Code = "OCR_FAILED"

	// Collaborator errors
	CodeRegistryUnavailable Code = "REGISTRY_UNAVAILABLE"
	CodeStorageFailed       Code = "STORAGE_FAILED"
	CodeQueueUnavailable    Code = "QUEUE_UNAVAILABLE"
	CodeJobNotFound         Code = "JOB_NOT_FOUND"
)

// Error is a structured service error with a stable code.
type Error struct {
	Code      Code
	Message   string
	RequestID string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewUnsupportedFormat(requestID, mimeType string) *Error {
	return &Error{
		Code:      CodeUnsupportedFormat,
		Message:   fmt.Sprintf("Unsupported file format: %s. Only JPEG/PNG allowed", mimeType),
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"mime_type": mimeType,
		},
	}
}

func NewInvalidAPIKey(reason string) *Error {
	return &Error{
		Code:      CodeInvalidAPIKey,
		Message:   fmt.Sprintf("Invalid API key (%s)", reason),
		Timestamp: time.Now(),
	}
}

func NewMissingAPIKey() *Error {
	return &Error{
		Code:      CodeMissingAPIKey,
		Message:   "X-API-Key header missing",
		Timestamp: time.Now(),
	}
}

func NewStorageFailed(requestID string, cause error) *Error {
	return &Error{
		Code:      CodeStorageFailed,
		Message:   "Storage operation failed",
		RequestID: requestID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewRegistryUnavailable(cause error) *Error {
	return &Error{
		Code:      CodeRegistryUnavailable,
		Message:   "Registry lookup failed",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewQueueUnavailable() *Error {
	return &Error{
		Code:      CodeQueueUnavailable,
		Message:   "Async verification queue is not configured",
		Timestamp: time.Now(),
	}
}

func NewJobNotFound(jobID string) *Error {
	return &Error{
		Code:      CodeJobNotFound,
		Message:   fmt.Sprintf("Verification job not found: %s", jobID),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"job_id": jobID,
		},
	}
}

// ToMap converts error to map for database storage
func (e *Error) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
