// Package errors provides standardized error handling for the matching gateway.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownEngine         ErrorCode = "UNKNOWN_ENGINE"
	ErrCodeEngineTimeout         ErrorCode = "ENGINE_TIMEOUT"
	ErrCodeEngineExecutionFailed ErrorCode = "ENGINE_EXECUTION_FAILED"
	ErrCodeDataUnavailable       ErrorCode = "DATA_UNAVAILABLE"
	ErrCodeRankerResponseInvalid ErrorCode = "RANKER_RESPONSE_INVALID"
	ErrCodeRankerUnavailable     ErrorCode = "RANKER_UNAVAILABLE"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeRequestEntityTooLarge ErrorCode = "REQUEST_TOO_LARGE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Kind is the caller-facing error kind string.
func (e *StandardError) Kind() string {
	return Kind(e.Code)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError carries the field-level problems in Metadata["fields"].
func NewValidationError(fields interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownEngineError lists the registered engine names in Metadata["available"].
func NewUnknownEngineError(name string, available []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEngine,
		Message:   fmt.Sprintf("Unknown engine '%s'", name),
		Details:   fmt.Sprintf("engine: %s", name),
		Retryable: false,
		Metadata:  map[string]interface{}{"available": available},
		Timestamp: time.Now().UTC(),
	}
}

// NewEngineTimeoutError reports an engine that exceeded its budget. Partial results are discarded.
func NewEngineTimeoutError(engine string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineTimeout,
		Message:   fmt.Sprintf("Engine '%s' timed out", engine),
		Details:   errText(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"engine": engine},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewEngineExecutionError wraps any other engine failure. Details are logged, never returned.
func NewEngineExecutionError(engine string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineExecutionFailed,
		Message:   fmt.Sprintf("Engine '%s' failed to produce results", engine),
		Details:   errText(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"engine": engine},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDataUnavailableError reports a candidate pool that could not be obtained.
func NewDataUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataUnavailable,
		Message:   "Candidate pool unavailable",
		Details:   fmt.Sprintf("source: %s, error: %s", source, errText(err)),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRankerResponseInvalidError creates a non-retryable malformed ranker response error.
func NewRankerResponseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankerResponseInvalid,
		Message:   "External ranker returned a malformed response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRankerUnavailableError creates a retryable ranker error after the client gave up.
func NewRankerUnavailableError(attempts int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankerUnavailable,
		Message:   "External ranker unavailable",
		Details:   fmt.Sprintf("attempts: %d, error: %s", attempts, errText(err)),
		Retryable: true,
		Metadata:  map[string]interface{}{"attempts": attempts},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError creates a non-retryable catch-all error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errText(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. HTTP Mapping
// ==========================

var httpStatus = map[ErrorCode]int{
	ErrCodeValidationFailed:      http.StatusBadRequest,
	ErrCodeUnknownEngine:         http.StatusBadRequest,
	ErrCodeEngineTimeout:         http.StatusGatewayTimeout,
	ErrCodeEngineExecutionFailed: http.StatusBadGateway,
	ErrCodeRankerResponseInvalid: http.StatusBadGateway,
	ErrCodeRankerUnavailable:     http.StatusBadGateway,
	ErrCodeDataUnavailable:       http.StatusServiceUnavailable,
	ErrCodeRateLimited:           http.StatusTooManyRequests,
	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeRequestEntityTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:              http.StatusInternalServerError,
}

// HTTPStatus returns the response status for an error code.
func HTTPStatus(code ErrorCode) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Kind returns the error kind string shown to callers.
func Kind(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed:
		return "ValidationError"
	case ErrCodeUnknownEngine:
		return "UnknownEngineError"
	case ErrCodeEngineTimeout:
		return "EngineTimeoutError"
	case ErrCodeEngineExecutionFailed, ErrCodeRankerResponseInvalid, ErrCodeRankerUnavailable:
		return "EngineExecutionError"
	case ErrCodeDataUnavailable:
		return "DataUnavailableError"
	case ErrCodeRateLimited:
		return "RateLimitError"
	case ErrCodeNotFound:
		return "NotFoundError"
	case ErrCodeRequestEntityTooLarge:
		return "ValidationError"
	default:
		return "InternalError"
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsTimeout reports whether err stems from a context deadline.
func IsTimeout(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeEngineTimeout, ErrCodeDataUnavailable, ErrCodeRankerUnavailable, ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "TOO_LARGE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RANKER"):
		return "RANKER"
	case strings.Contains(codeStr, "ENGINE"):
		return "ENGINE"
	case strings.Contains(codeStr, "DATA"):
		return "DATA"
	case strings.Contains(codeStr, "RATE"):
		return "CLIENT"
	default:
		return "OTHER"
	}
}
