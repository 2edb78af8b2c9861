package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error carrying the HTTP status it should be rendered
// with and an optional structured payload for the response body.
type Error struct {
	Status  int
	Message string
	Data    any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithData attaches a structured detail payload to a copy of the error.
func (e *Error) WithData(data any) *Error {
	return &Error{Status: e.Status, Message: e.Message, Data: data, Err: e.Err}
}

// Wrap attaches an underlying cause to a copy of the error.
func (e *Error) Wrap(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Data: e.Data, Err: err}
}

// New constructs an error with an explicit status code.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// NotFound reports an absent entity referenced by the caller.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict reports a state that already satisfies an exclusivity rule.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// AccessDenied reports that the actor lacks permission for the operation.
func AccessDenied(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotAcceptable reports an elapsed token or recovery window.
func NotAcceptable(message string) *Error {
	return New(http.StatusNotAcceptable, message)
}

// Internal reports an unexpected failure without leaking its cause.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal server error.", Err: err}
}

// StatusOf returns the status carried by err, or 500 for unexpected errors.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
