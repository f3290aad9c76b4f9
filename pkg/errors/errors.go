package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels classify failures independently of how they are reported.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
	ErrServiceUnavail  = errors.New("service unavailable")
	ErrBadGateway      = errors.New("bad gateway")
)

// kind ties a sentinel to its wire code, HTTP status and the message shown
// when nothing more specific is known.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is checked in order by Describe, so more specific sentinels come first.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "request conflicts with current state"},
	{ErrTooManyRequests, "RATE_LIMITED", http.StatusTooManyRequests, "too many requests"},
	{ErrBadGateway, "BAD_GATEWAY", http.StatusBadGateway, "upstream service unavailable"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service temporarily unavailable"},
}

var internalKind = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}

// AppError is an error that knows how it should be reported to a client.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(k kind, message string, cause error) *AppError {
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: cause}
}

func kindOf(sentinel error) kind {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return k
		}
	}
	return internalKind
}

// NotFound reports a missing resource, e.g. NotFound("product", "42").
func NotFound(resource, id string) *AppError {
	return newError(kindOf(ErrNotFound), fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

func InvalidInput(message string) *AppError {
	return newError(kindOf(ErrInvalidInput), message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return newError(kindOf(ErrUnauthorized), message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return newError(kindOf(ErrForbidden), message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return newError(kindOf(ErrConflict), message, ErrConflict)
}

func TooManyRequests(message string) *AppError {
	return newError(kindOf(ErrTooManyRequests), message, ErrTooManyRequests)
}

func ServiceUnavailable(message string) *AppError {
	return newError(kindOf(ErrServiceUnavail), message, ErrServiceUnavail)
}

// BadGateway reports a failed call to service. The cause stays reachable
// through errors.Is and errors.As.
func BadGateway(service string, cause error) *AppError {
	return newError(kindOf(ErrBadGateway), service+" is unavailable", errors.Join(ErrBadGateway, cause))
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return newError(internalKind, internalKind.message, err)
}

// FromStatus builds the AppError matching an upstream HTTP status. Statuses
// with no matching kind keep their value and use fallbackCode.
func FromStatus(status int, message, fallbackCode string) *AppError {
	switch {
	case status == http.StatusUnprocessableEntity:
		return InvalidInput(message)
	case status >= http.StatusInternalServerError:
		return newError(internalKind, message, ErrInternal)
	}
	for _, k := range kinds {
		if k.status == status {
			return newError(k, message, k.sentinel)
		}
	}
	return &AppError{Code: fallbackCode, Message: message, Status: status}
}

// Describe returns the code, client-facing message and HTTP status for err.
// AppErrors report themselves; bare sentinels get their default message and
// anything else is an internal error.
func Describe(err error) (code, message string, status int) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message, appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			msg := k.message
			if msg == "" {
				msg = err.Error()
			}
			return k.code, msg, k.status
		}
	}
	return internalKind.code, internalKind.message, internalKind.status
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	_, _, status := Describe(err)
	return status
}
