package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the single failure currency of the request pipeline. Code is
// the HTTP status, Operational marks failures whose message is safe to show
// verbatim to the caller.
type AppError struct {
	Code        int
	Message     string
	Operational bool
	Err         error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error { return e.Err }

// StatusClass returns "fail" for 4xx codes and "error" otherwise, matching
// the response envelope contract.
func (e *AppError) StatusClass() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Operational: true}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: msg, Operational: true}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg, Operational: true}
}

func NotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg, Operational: true}
}

// Internal wraps an unanticipated failure. Not operational: the message is
// never shown to callers in production.
func Internal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg, Operational: false, Err: err}
}

// Wrap converts an arbitrary error into an AppError, passing existing
// AppErrors through unchanged.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	return &AppError{Code: http.StatusInternalServerError, Message: err.Error(), Err: err}
}

func IsNotFound(err error) bool {
	var app *AppError
	return errors.As(err, &app) && app.Code == http.StatusNotFound
}

func IsOperational(err error) bool {
	var app *AppError
	return errors.As(err, &app) && app.Operational
}

// ErrNoDocument is the uniform not-found failure for id lookups across every
// resource kind.
func ErrNoDocument() *AppError {
	return NotFound("No document found with that ID")
}

// Validation reports a store-level validation failure on a named field.
func Validation(field, msg string) *AppError {
	return BadRequest(fmt.Sprintf("%s: %s", field, msg))
}
