package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Pipeline Errors

// ErrInvalidConfiguration signals a malformed job configuration. Fatal,
// surfaced before any work starts, never retried.
func ErrInvalidConfiguration(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_CONFIGURATION,
		Message:  message,
	}
}

// ErrInvalidDuration signals a non-sensical audio duration at planning time.
func ErrInvalidDuration(seconds float64) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_DURATION,
		Message:  "Audio duration must not be negative",
	}.WithDetail("duration_seconds", fmt.Sprintf("%.3f", seconds))
}

// ErrSubrangeTranscriptionFailed reports a localized sub-range failure.
// Recovered at the orchestrator boundary, never escalated on its own.
func ErrSubrangeTranscriptionFailed(index int, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUBRANGE_TRANSCRIPTION_FAILED,
		Message:  "Sub-range transcription failed",
	}.WithDetail("subrange_index", fmt.Sprintf("%d", index))
}

// ErrEmptyTranscript is the terminal failure when the merged segment list is
// empty and nothing usable was produced.
func ErrEmptyTranscript() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_EMPTY_TRANSCRIPT,
		Message:  "Transcription produced no segments",
	}
}

// ErrAttributionInput reports malformed voice-window data. The offending
// window is skipped during resolution; this error is counted, not thrown.
func ErrAttributionInput(reason string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_ATTRIBUTION_INPUT,
		Message:  fmt.Sprintf("Malformed voice window: %s", reason),
	}
}

// Job Errors
func ErrJobNotFound(jobID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_JOB_NOT_FOUND,
		Message:  "Transcription job not found",
	}.WithDetail("job_id", jobID)
}

func ErrJobInvalidState(jobID, currentState, expectedState string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_JOB_INVALID_STATE,
		Message:  "Job is in invalid state",
	}.WithDetail("job_id", jobID).
		WithDetail("current_state", currentState).
		WithDetail("expected_state", expectedState)
}

func ErrJobProcessingFailed(jobID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_JOB_PROCESSING_FAILED,
		Message:  "Job processing failed",
	}.WithDetail("job_id", jobID)
}

// Integration Errors
func ErrForumAPIFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_FORUM_FAILED,
		Message:  fmt.Sprintf("Forum API call failed: %s", operation),
	}
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrLLMFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_LLM_FAILED,
		Message:  "LLM request failed",
	}
}

// Media / Engine Errors
func ErrMediaDecodeFailed(path string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_MEDIA_DECODE_FAILED,
		Message:  "Failed to decode media file",
	}.WithDetail("path", path)
}

func ErrEngineLoadFailed(modelSize string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_ENGINE_LOAD_FAILED,
		Message:  "Failed to load speech engine",
	}.WithDetail("model_size", modelSize)
}

// Report Errors
func ErrReportGenerationFailed(format string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_REPORT_GENERATION_FAILED,
		Message:  "Failed to generate report",
	}.WithDetail("format", format)
}

// Database Errors
func ErrDBConnectionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_CONNECTION_FAILED,
		Message:  "Database connection failed",
	}
}

func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}
