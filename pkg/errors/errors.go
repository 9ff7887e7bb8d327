// Package errors provides structured error types for ce-mcp.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the MCP tools and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - NETWORK_*: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// Library resolution has its own family (LIBRARY_*, COMPILER_LIBRARY_UNSUPPORTED)
// because those failures are surfaced to the client with suggestions attached.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLibraryNotFound, "Library '%s' not found for %s", id, lang)
//	if errors.Is(err, errors.ErrCodeLibraryNotFound) {
//	    // attach suggestions
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeCompilerNotFound    Code = "COMPILER_NOT_FOUND"
	ErrCodeInstructionNotFound Code = "INSTRUCTION_NOT_FOUND"
	ErrCodeShortlinkNotFound   Code = "SHORTLINK_NOT_FOUND"

	// Library resolution errors
	ErrCodeLibrary                    Code = "LIBRARY_ERROR"
	ErrCodeLibraryNotFound            Code = "LIBRARY_NOT_FOUND"
	ErrCodeLibraryVersionNotFound     Code = "LIBRARY_VERSION_NOT_FOUND"
	ErrCodeCompilerLibraryUnsupported Code = "COMPILER_LIBRARY_UNSUPPORTED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsLibraryError reports whether err belongs to the library resolution family.
func IsLibraryError(err error) bool {
	switch GetCode(err) {
	case ErrCodeLibrary, ErrCodeLibraryNotFound, ErrCodeLibraryVersionNotFound, ErrCodeCompilerLibraryUnsupported:
		return true
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Code == ErrCodeNetwork {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
