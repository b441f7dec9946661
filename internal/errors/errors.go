package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput        = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON       = errors.New("invalid JSON format")
	ErrMultipleJSON      = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidFilePath   = errors.New("invalid file path")
	ErrUnsupportedShape  = errors.New("unsupported top-level JSON type (expected list or object)")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
	ErrNonObjectResponse = errors.New("expected JSON map/object in response")
	ErrInvalidURL        = errors.New("invalid base URL")
	ErrInvalidTimeout    = errors.New("timeout must be positive")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeOutput     ErrorType = "output"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Exit codes returned by the genpost binary.
const (
	ExitOK         = 0
	ExitUnexpected = 1
	ExitPipeline   = 2
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	// Check if target is also an *AppError and if the types match
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewInputError creates a new error for an unreadable or malformed JSON source
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new error for JSON with an unsupported shape
func NewValidationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Err:     err,
	}
}

// NewHTTPError creates a new error for a failed request to the generate service
func NewHTTPError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeHTTP,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new error for invalid settings
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the category of err, or ErrorTypeUnknown when err is not an *AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsPipelineError reports whether err is one of the anticipated failures of
// the load, filter and post stages.
func IsPipelineError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeInput, ErrorTypeValidation, ErrorTypeHTTP, ErrorTypeConfig:
		return true
	default:
		return false
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsPipelineError(err) {
		return ExitPipeline
	}
	return ExitUnexpected
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeValidation:
			return fmt.Sprintf("Validation error: %s", appErr.Message)
		case ErrorTypeHTTP:
			return fmt.Sprintf("HTTP error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrUnsupportedShape) {
		return "Error: The top-level JSON value must be a list or an object."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
