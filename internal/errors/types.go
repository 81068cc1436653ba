// Package errors provides the structured error type used by the palette's
// infrastructure (configuration, storage, profile and manifest files) and
// the diagnostics reported by the external library pipeline.
//
// Pipeline stages never return errors for library problems; they report
// diagnostics instead, so one failing library cannot stop the others.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// ExtLibError is a structured error type with context.
type ExtLibError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	LibraryID   string
	Location    string
	Recoverable bool
}

// Error implements the error interface.
func (e *ExtLibError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.LibraryID != "" {
		parts = append(parts, "library:"+e.LibraryID)
	}
	if e.Location != "" {
		parts = append(parts, e.Location)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ExtLibError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *ExtLibError) Is(target error) bool {
	var t *ExtLibError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLibrary adds library context.
func (e *ExtLibError) WithLibrary(libraryID string) *ExtLibError {
	e.LibraryID = libraryID

	return e
}

// WithLocation adds a file or URL location.
func (e *ExtLibError) WithLocation(location string) *ExtLibError {
	e.Location = location

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *ExtLibError {
	return &ExtLibError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *ExtLibError {
	return &ExtLibError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *ExtLibError {
	return &ExtLibError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *ExtLibError {
	return &ExtLibError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *ExtLibError {
	return &ExtLibError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var e *ExtLibError
	if errors.As(err, &e) {
		return e.Recoverable
	}

	return false
}

// Common error codes.
const (
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeManifestInvalid  = "ERR_MANIFEST_INVALID"
	ErrCodeProfileInvalid   = "ERR_PROFILE_INVALID"
	ErrCodeStorageFailed    = "ERR_STORAGE_FAILED"
	ErrCodeFetchFailed      = "ERR_FETCH_FAILED"
	ErrCodeImportFailed     = "ERR_IMPORT_FAILED"
	ErrCodeComponentMissing = "ERR_COMPONENT_NOT_FOUND"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
)
