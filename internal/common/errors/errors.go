// Package errors provides standardized error handling for the validation API
// and its rule sources.
package errors

import (
	"errors"
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
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeFormNotFound   ErrorCode = "FORM_NOT_FOUND"

	ErrCodeRuleSourceUnavailable ErrorCode = "RULE_SOURCE_UNAVAILABLE"
	ErrCodeRuleDecodeFailed      ErrorCode = "RULE_DECODE_FAILED"
	ErrCodeRuleCacheFailed       ErrorCode = "RULE_CACHE_FAILED"
	ErrCodeBundleInvalid         ErrorCode = "BUNDLE_INVALID"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a metadata entry and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable request shape error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFormNotFoundError creates a non-retryable lookup error.
func NewFormNotFoundError(formID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFormNotFound,
		Message:   "Form not found",
		Details:   fmt.Sprintf("formId: %s", formID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRuleSourceUnavailableError creates a retryable storage error.
func NewRuleSourceUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleSourceUnavailable,
		Message:   fmt.Sprintf("Rule source '%s' unavailable", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRuleDecodeFailedError creates a non-retryable error for stored rules
// that cannot be materialized.
func NewRuleDecodeFailedError(details string, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeRuleDecodeFailed,
		Message:   "Stored validation rules could not be decoded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = fmt.Sprintf("%s: %v", details, err)
	}
	return e
}

// NewRuleCacheFailedError creates a retryable cache error.
func NewRuleCacheFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleCacheFailed,
		Message:   fmt.Sprintf("Rule cache %s failed", op),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBundleInvalidError creates a non-retryable bundle file error.
func NewBundleInvalidError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBundleInvalid,
		Message:   "Rule bundle is invalid",
		Details:   fmt.Sprintf("%s: %v", path, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps error codes to response status codes.
var HTTPStatus = map[ErrorCode]int{
	ErrCodeInvalidRequest:        http.StatusBadRequest,
	ErrCodeFormNotFound:          http.StatusNotFound,
	ErrCodeRuleSourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeRuleDecodeFailed:      http.StatusInternalServerError,
	ErrCodeRuleCacheFailed:       http.StatusServiceUnavailable,
	ErrCodeBundleInvalid:         http.StatusInternalServerError,
	ErrCodeInternal:              http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code, defaulting to 500.
func StatusFor(code ErrorCode) int {
	if status, ok := HTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetRetryCount returns the recommended client retry count.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRuleSourceUnavailable:
		return 3
	case ErrCodeRuleCacheFailed:
		return 1
	default:
		return 0
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "RULE_") || strings.Contains(codeStr, "BUNDLE"):
		return "RULE_SOURCE"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}

// AsStandard normalizes err to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}
