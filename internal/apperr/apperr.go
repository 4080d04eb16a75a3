// Package apperr defines the error taxonomy shared by every layer of the
// planner: repositories, services and HTTP handlers all speak in these codes.
package apperr

import "errors"

// Code is a machine-readable error category.
type Code string

const (
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeUnauthorized     Code = "unauthorized"
	CodeStoreUnavailable Code = "store_unavailable"
	CodeInvalidInput     Code = "invalid_input"
)

// Sentinels for errors.Is checks. Matching is by code, so any *Error with
// the same code satisfies errors.Is(err, ErrNotFound) and friends.
var (
	ErrNotFound         = New(CodeNotFound, "not found")
	ErrConflict         = New(CodeConflict, "conflict")
	ErrUnauthorized     = New(CodeUnauthorized, "invalid credentials")
	ErrStoreUnavailable = New(CodeStoreUnavailable, "store unavailable")
	ErrInvalidInput     = New(CodeInvalidInput, "invalid input")
)

// Error is a categorized failure with an optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound, Conflict, Invalid and Unavailable are shorthands for the
// constructors used most often.
func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Conflict(message string) *Error { return New(CodeConflict, message) }

func Invalid(message string) *Error { return New(CodeInvalidInput, message) }

func Unavailable(message string, cause error) *Error {
	return Wrap(CodeStoreUnavailable, message, cause)
}

// CodeOf extracts the code of the first *Error in err's chain, or "" when
// err carries no categorized error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
