package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with wrapped error",
			appError: &AppError{
				Type:    ErrorTypeInput,
				Message: "failed to read input",
				Err:     errors.New("file not found"),
			},
			expected: "input: failed to read input: file not found",
		},
		{
			name: "error without wrapped error",
			appError: &AppError{
				Type:    ErrorTypeValidation,
				Message: "unsupported top-level JSON type",
				Err:     nil,
			},
			expected: "validation: unsupported top-level JSON type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	appErr := &AppError{
		Type:    ErrorTypeHTTP,
		Message: "test message",
		Err:     wrappedErr,
	}

	assert.Equal(t, wrappedErr, appErr.Unwrap())
	assert.ErrorIs(t, appErr, wrappedErr)
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		target   error
		expected bool
	}{
		{
			name:     "same type",
			appError: NewHTTPError("request failed", nil),
			target:   NewHTTPError("different message", errors.New("some error")),
			expected: true,
		},
		{
			name:     "different type",
			appError: NewInputError("test message", nil),
			target:   NewValidationError("test message", nil),
			expected: false,
		},
		{
			name:     "not an AppError",
			appError: NewInputError("test message", nil),
			target:   errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Is(tt.target))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: ExitOK},
		{name: "input error", err: NewInputError("missing", ErrFileNotFound), expected: ExitPipeline},
		{name: "validation error", err: NewValidationError("bad shape", ErrUnsupportedShape), expected: ExitPipeline},
		{name: "http error", err: NewHTTPError("status 500", ErrUnexpectedStatus), expected: ExitPipeline},
		{name: "config error", err: NewConfigError("bad url", ErrInvalidURL), expected: ExitPipeline},
		{name: "wrapped http error", err: fmt.Errorf("stage: %w", NewHTTPError("boom", nil)), expected: ExitPipeline},
		{name: "output error", err: NewOutputError("stdout closed", nil), expected: ExitUnexpected},
		{name: "plain error", err: errors.New("nil pointer"), expected: ExitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, TypeOf(NewValidationError("x", nil)))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("x")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestUserFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "input error",
			err:      NewInputError("failed to read file", nil),
			expected: "Input error: failed to read file",
		},
		{
			name:     "validation error",
			err:      NewValidationError("unsupported top-level JSON type: number", nil),
			expected: "Validation error: unsupported top-level JSON type: number",
		},
		{
			name:     "http error",
			err:      NewHTTPError("response not valid JSON", nil),
			expected: "HTTP error: response not valid JSON",
		},
		{
			name:     "config error",
			err:      NewConfigError("timeout must be positive", nil),
			expected: "Configuration error: timeout must be positive",
		},
		{
			name:     "output error",
			err:      NewOutputError("failed to write output", nil),
			expected: "Output error: failed to write output",
		},
		{
			name:     "standard error - empty input",
			err:      ErrEmptyInput,
			expected: "Error: The input is empty. Please provide valid JSON data.",
		},
		{
			name:     "standard error - unsupported shape",
			err:      ErrUnsupportedShape,
			expected: "Error: The top-level JSON value must be a list or an object.",
		},
		{
			name:     "unknown error",
			err:      errors.New("some unknown error"),
			expected: "Error: some unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserFriendlyError(tt.err))
		})
	}
}
