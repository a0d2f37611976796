// Package errors provides structured error types for the OLS client.
//
// Every failure surfaced by the client is an [*Error] carrying a
// machine-readable [Code] together with the fields of the OLS error
// envelope: a human message, the HTTP status, the originating path and the
// time the failure was observed.
//
// # Error Codes
//
//   - NOT_FOUND: the identifier does not exist (terminal)
//   - BAD_PARAMETER: the caller supplied an invalid argument (terminal)
//   - BAD_FILTERS: a query filter failed validation (terminal)
//   - SERVER_ERROR: the remote API answered 5xx (transient)
//   - OBJECT_NOT_RETRIEVED: retries were exhausted (terminal)
//   - OUT_OF_RANGE: a collection index exceeds its length
//   - OLS_ERROR: anything else reported by the transport layer
//
// # Usage
//
//	err := errors.New(errors.ErrCodeBadFilters, "unauthorized filter key %q", key)
//	if errors.Is(err, errors.ErrCodeBadFilters) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeObjectNotRetrieved, lastErr, "gave up on %s", url)
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the OLS failure taxonomy.
const (
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeBadParameter       Code = "BAD_PARAMETER"
	ErrCodeBadFilters         Code = "BAD_FILTERS"
	ErrCodeServerError        Code = "SERVER_ERROR"
	ErrCodeObjectNotRetrieved Code = "OBJECT_NOT_RETRIEVED"
	ErrCodeOutOfRange         Code = "OUT_OF_RANGE"
	ErrCodeOLS                Code = "OLS_ERROR"
)

// Error is a structured error with a code, the OLS envelope fields and an
// optional cause.
type Error struct {
	Code      Code      // Machine-readable error code
	Message   string    // Human-readable message
	Status    int       // HTTP status, 0 when the failure is local
	Path      string    // Originating path or resource kind
	Timestamp time.Time // When the failure was observed
	Cause     error     // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns e with Path set. It mutates and returns the receiver so
// constructors can be chained.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithStatus returns e with Status set.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// FromStatus builds an Error from an HTTP status code using the OLS
// classification: 404 is NOT_FOUND, other 4xx are BAD_PARAMETER, 5xx are
// SERVER_ERROR and everything else is OLS_ERROR.
func FromStatus(status int, path, message string) *Error {
	var code Code
	switch {
	case status == 404:
		code = ErrCodeNotFound
	case status >= 400 && status < 500:
		code = ErrCodeBadParameter
	case status >= 500:
		code = ErrCodeServerError
	default:
		code = ErrCodeOLS
	}
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", status)
	}
	return &Error{
		Code:      code,
		Message:   message,
		Status:    status,
		Path:      path,
		Timestamp: time.Now(),
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

// IsTerminal reports whether err belongs to a category that must never be
// retried: a definitive absence or a caller mistake.
func IsTerminal(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeBadParameter, ErrCodeBadFilters, ErrCodeOutOfRange:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
