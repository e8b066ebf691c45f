package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeCache             = "CACHE_ERROR"
	CodeNotConfigured     = "NOT_CONFIGURED"
	CodeTriggerFailed     = "TRIGGER_FAILED"
	CodeMissingJobID      = "MISSING_JOB_ID"
	CodeJobFailed         = "JOB_FAILED"
	CodeTimeout           = "TIMEOUT"
	CodeSnapshotNotReady  = "SNAPSHOT_NOT_READY"
	CodeFetchFailed       = "FETCH_FAILED"
	CodeUnexpectedPayload = "UNEXPECTED_PAYLOAD"
	CodeAgentFailed       = "AGENT_FAILED"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// LookupError is returned by every step of a profile lookup. All codes are
// terminal; the route layer maps them to a single upstream-unavailable reply.
type LookupError struct {
	*AppError
	JobID        string
	LastStatus   string
	LastResponse map[string]any
	HTTPStatus   int
}

func newLookupError(code, message string, cause error) *LookupError {
	return &LookupError{
		AppError: &AppError{
			Message:    message,
			Code:       code,
			StatusCode: 502,
			Context:    map[string]any{},
			Cause:      cause,
		},
	}
}

// Is matches another LookupError by code, so the Err* sentinels work with errors.Is.
func (e *LookupError) Is(target error) bool {
	var other *LookupError
	if !stderrors.As(target, &other) || other == nil || other.AppError == nil {
		return false
	}
	return e.Code == other.Code
}

func (e *LookupError) withJob(jobID string) *LookupError {
	e.JobID = jobID
	if jobID != "" {
		e.Context["job_id"] = jobID
	}
	return e
}

func NewNotConfiguredError(missing ...string) *LookupError {
	err := newLookupError(CodeNotConfigured, "Bright Data credentials or dataset ID are not configured", nil)
	err.Context["missing"] = missing
	return err
}

func NewTriggerError(message string, httpStatus int, cause error) *LookupError {
	err := newLookupError(CodeTriggerFailed, message, cause)
	err.HTTPStatus = httpStatus
	return err
}

func NewMissingJobIDError(body string) *LookupError {
	err := newLookupError(CodeMissingJobID, "trigger response did not contain a snapshot id", nil)
	err.Context["body"] = body
	return err
}

func NewJobFailedError(jobID string, lastResponse map[string]any) *LookupError {
	err := newLookupError(CodeJobFailed, fmt.Sprintf("snapshot %s failed", jobID), nil).withJob(jobID)
	err.LastResponse = lastResponse
	return err
}

func NewTimeoutError(jobID, lastStatus string, cause error) *LookupError {
	err := newLookupError(CodeTimeout, fmt.Sprintf("snapshot %s not ready in time (last status %q)", jobID, lastStatus), cause).withJob(jobID)
	err.LastStatus = lastStatus
	return err
}

func NewSnapshotNotReadyError(jobID string, attempts int) *LookupError {
	err := newLookupError(CodeSnapshotNotReady, fmt.Sprintf("snapshot %s still building after %d attempts", jobID, attempts), nil).withJob(jobID)
	err.Context["attempts"] = attempts
	return err
}

func NewFetchError(jobID, message string, httpStatus int, cause error) *LookupError {
	err := newLookupError(CodeFetchFailed, message, cause).withJob(jobID)
	err.HTTPStatus = httpStatus
	return err
}

func NewUnexpectedPayloadError(jobID, message string) *LookupError {
	return newLookupError(CodeUnexpectedPayload, message, nil).withJob(jobID)
}

// Sentinels for errors.Is checks.
var (
	ErrNotConfigured     = newLookupError(CodeNotConfigured, "not configured", nil)
	ErrTriggerFailed     = newLookupError(CodeTriggerFailed, "trigger failed", nil)
	ErrMissingJobID      = newLookupError(CodeMissingJobID, "missing job id", nil)
	ErrJobFailed         = newLookupError(CodeJobFailed, "job failed", nil)
	ErrTimeout           = newLookupError(CodeTimeout, "timeout", nil)
	ErrSnapshotNotReady  = newLookupError(CodeSnapshotNotReady, "snapshot not ready", nil)
	ErrFetchFailed       = newLookupError(CodeFetchFailed, "fetch failed", nil)
	ErrUnexpectedPayload = newLookupError(CodeUnexpectedPayload, "unexpected payload", nil)
)

// AgentError wraps any provider or model failure raised while summarizing a profile.
type AgentError struct {
	*AppError
	Provider string
}

func NewAgentError(message, provider string, cause error) *AgentError {
	return &AgentError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAgentFailed,
			StatusCode: 502,
			Context: map[string]any{
				"provider": provider,
			},
			Cause: cause,
		},
		Provider: provider,
	}
}

// Code extracts the error code from any error in the chain, or "" if none.
func Code(err error) string {
	var lookupErr *LookupError
	if stderrors.As(err, &lookupErr) && lookupErr.AppError != nil {
		return lookupErr.Code
	}
	var agentErr *AgentError
	if stderrors.As(err, &agentErr) && agentErr.AppError != nil {
		return agentErr.Code
	}
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) && validationErr.AppError != nil {
		return validationErr.Code
	}
	var cacheErr *CacheError
	if stderrors.As(err, &cacheErr) && cacheErr.AppError != nil {
		return cacheErr.Code
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
