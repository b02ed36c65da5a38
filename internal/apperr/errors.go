// Package apperr defines the error kinds surfaced to API callers and their HTTP status codes.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error for the HTTP layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindInvariant
	KindConflict
)

// Status maps the kind to its HTTP status code
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvariant:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Detail is one failed field check
type Detail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error is the single error type returned by repositories, services and handlers
type Error struct {
	Kind    Kind
	Message string
	Details []Detail
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the wrapped cause, carrying a stack trace for internal errors
func (e *Error) Cause() error {
	return e.cause
}

func Validation(message string, details ...Detail) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Invariant(message string) *Error {
	return &Error{Kind: KindInvariant, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected failure, recording the stack at the call site
func Internal(message string, cause error) *Error {
	if cause == nil {
		cause = errors.New(message)
	}
	return &Error{Kind: KindInternal, Message: message, cause: errors.WithStack(cause)}
}

// KindOf reports the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an apperr of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Stack renders err with its stack trace when one was recorded
func Stack(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.cause != nil {
		return fmt.Sprintf("%+v", appErr.cause)
	}
	return fmt.Sprintf("%+v", err)
}
