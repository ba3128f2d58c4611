// Package errors provides standardized domain errors with codes for the Libris API.
//
// Usage:
//
//	// In services - return typed errors
//	if usernameTaken {
//	    return errors.BadUserInput("username already taken")
//	}
//
//	// At call sites - check with errors.Is
//	if errors.Is(err, errors.ErrUnauthenticated) {
//	    ...
//	}
//
// Errors carry a machine-readable code that the GraphQL engine surfaces in
// the response's extensions map, so clients can branch on the error class
// without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application. The spelling follows the
// conventional GraphQL error-extension codes so generic clients understand
// them.
const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeBadUserInput    Code = "BAD_USER_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// Error is a domain error with a code, message, and optional invalid-args
// diagnostics.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// InvalidArgs preserves the offending arguments of a rejected
	// operation for diagnostics.
	InvalidArgs map[string]any `json:"invalid_args,omitempty"`
	cause       error          // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Extensions returns the GraphQL error extensions for this error.
// The graphql-go engine picks this up from resolver errors and copies it
// into the response.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": string(e.Code)}
	if len(e.InvalidArgs) > 0 {
		ext["invalidArgs"] = e.InvalidArgs
	}
	return ext
}

// WithInvalidArgs returns a new error carrying the offending arguments.
func (e *Error) WithInvalidArgs(args map[string]any) *Error {
	return &Error{
		Code:        e.Code,
		Message:     e.Message,
		InvalidArgs: args,
		cause:       e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:        e.Code,
		Message:     e.Message,
		InvalidArgs: e.InvalidArgs,
		cause:       err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "not authenticated"}
	ErrBadUserInput    = &Error{Code: CodeBadUserInput, Message: "bad user input"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists   = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// Unauthenticated creates an authentication error.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// BadUserInput creates a user-input error.
func BadUserInput(msg string) *Error {
	return &Error{Code: CodeBadUserInput, Message: msg}
}

// BadUserInputf creates a user-input error with formatted message.
func BadUserInputf(format string, args ...any) *Error {
	return &Error{Code: CodeBadUserInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
