// Package errors provides structured error types for revgraph.
//
// Every failure inside the viewer is local: the dispatcher logs it and keeps
// reading commands. Codes let the caller decide how loudly to report a failure
// without string matching.
//
// # Error Codes
//
//   - MALFORMED_LINE: a protocol line with too few or invalid fields
//   - UNKNOWN_COMMAND: a protocol tag the dispatcher does not handle
//   - INVALID_DOT: a graph source Graphviz could not parse or render
//   - INVALID_CONFIG: an unreadable or invalid configuration file
//   - EMIT_FAILED: an output line could not be written
//   - INTERNAL_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedLine, "draw: want 3 fields, got %d", n)
//	if errors.Is(err, errors.ErrCodeMalformedLine) {
//	    // drop the line
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Protocol errors
	ErrCodeMalformedLine  Code = "MALFORMED_LINE"
	ErrCodeUnknownCommand Code = "UNKNOWN_COMMAND"

	// Canvas errors
	ErrCodeInvalidDOT Code = "INVALID_DOT"

	// Startup errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Output errors
	ErrCodeEmitFailed Code = "EMIT_FAILED"

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

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix for *Error values,
// and the plain error string otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
