// Package errors provides structured error types for the replaykit pipeline.
// All errors include a category, code, message, and retryable flag. No error
// from this subsystem is ever surfaced to the host application: callers log
// the structured error through telemetry and continue.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline stage.
type ErrorCategory string

const (
	ErrCategoryCapture  ErrorCategory = "CAPTURE"
	ErrCategoryEncoding ErrorCategory = "ENCODING"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryCatalog  ErrorCategory = "CATALOG"
	ErrCategoryUpload   ErrorCategory = "UPLOAD"
	ErrCategoryContext  ErrorCategory = "CONTEXT"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Capture codes
	CodeUnsupportedElement = "UNSUPPORTED_ELEMENT"
	CodeCaptureFailed      = "CAPTURE_FAILED"

	// Encoding codes
	CodeSerializationFailed = "SERIALIZATION_FAILED"
	CodeCorruptSegment      = "CORRUPT_SEGMENT"

	// Storage codes
	CodePersistFailed  = "PERSIST_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Catalog codes
	CodeRegisterFailed = "REGISTER_FAILED"
	CodeQueryFailed    = "QUERY_FAILED"

	// Upload codes
	CodeRequestBuildFailed = "REQUEST_BUILD_FAILED"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeUploadRejected     = "UPLOAD_REJECTED"

	// Context codes
	CodeMissingContext = "MISSING_CONTEXT"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ReplayError is the structured error type used throughout the pipeline.
type ReplayError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *ReplayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ReplayError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ReplayError) Is(target error) bool {
	var t *ReplayError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ReplayError.
func New(category ErrorCategory, code, message string) *ReplayError {
	return &ReplayError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new ReplayError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ReplayError {
	return &ReplayError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ReplayError) WithDetails(details map[string]interface{}) *ReplayError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a ReplayError.
func GetCategory(err error) ErrorCategory {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a ReplayError.
func GetCode(err error) string {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// isRetryable determines if an error code is worth retrying. Persistence
// failures are not retried by this subsystem: retry belongs to the upload
// layer, which re-reads the catalog on the next pass.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryUpload && code == CodeUploadFailed:
		return true
	case category == ErrCategoryCatalog && code == CodeQueryFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewCaptureError(code, message string) *ReplayError {
	return New(ErrCategoryCapture, code, message)
}

func NewEncodingError(code, message string, cause error) *ReplayError {
	return Wrap(ErrCategoryEncoding, code, message, cause)
}

func NewStorageError(code, message string, cause error) *ReplayError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *ReplayError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewUploadError(code, message string, cause error) *ReplayError {
	return Wrap(ErrCategoryUpload, code, message, cause)
}

func NewInternalError(message string, cause error) *ReplayError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
