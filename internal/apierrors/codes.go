// Package apierrors provides the error taxonomy shared by the core services
// and the HTTP layer. Core code raises the sentinel errors below; handlers
// translate them to namespaced codes with a registered HTTP status. Codes are
// namespaced (e.g. "core:not_found", "tickets:status_change_forbidden").
package apierrors

import (
	"errors"
	"net/http"
)

// Sentinel errors raised by services and repositories. The taxonomy is
// deliberately small: four kinds, mapped 1:1 to 401/403/404/400.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrNotFound covers both "row does not exist" and "row outside the
	// caller's scope" — callers must not be able to tell the two apart.
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// Core error codes - registered automatically at init
const (
	CodeUnauthorized = "core:unauthorized"
	CodeForbidden    = "core:forbidden"
	CodeInvalidToken = "core:invalid_token"

	CodeInvalidRequest   = "core:invalid_request"
	CodeValidationFailed = "core:validation_failed"
	CodeInvalidID        = "core:invalid_id"

	CodeNotFound = "core:not_found"
	CodeConflict = "core:conflict"

	CodeRateLimited = "core:rate_limited"

	CodeInternalError      = "core:internal_error"
	CodeServiceUnavailable = "core:service_unavailable"
)

// Domain error codes.
const (
	CodeStatusChangeForbidden = "tickets:status_change_forbidden"
	CodeInternalNoteForbidden = "comments:internal_note_forbidden"
	CodeRaiseNotPermitted     = "tickets:raise_not_permitted"
	CodeAssigneeNotEligible   = "tickets:assignee_not_eligible"
	CodeLoginFailed           = "auth:login_failed"
)

var coreErrors = []ErrorCode{
	{Code: CodeUnauthorized, Message: "Authentication required", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeInvalidToken, Message: "Invalid or malformed token", HTTPStatus: http.StatusUnauthorized},

	{Code: CodeInvalidRequest, Message: "Invalid request body", HTTPStatus: http.StatusBadRequest},
	{Code: CodeValidationFailed, Message: "Request validation failed", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidID, Message: "Invalid ID format", HTTPStatus: http.StatusBadRequest},

	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeConflict, Message: "Resource conflict", HTTPStatus: http.StatusConflict},

	{Code: CodeRateLimited, Message: "Too many requests", HTTPStatus: http.StatusTooManyRequests},

	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
	{Code: CodeServiceUnavailable, Message: "Service temporarily unavailable", HTTPStatus: http.StatusServiceUnavailable},

	{Code: CodeStatusChangeForbidden, Message: "Clients may not change ticket status", HTTPStatus: http.StatusForbidden},
	{Code: CodeInternalNoteForbidden, Message: "Clients may not author internal notes", HTTPStatus: http.StatusForbidden},
	{Code: CodeRaiseNotPermitted, Message: "Not permitted to raise tickets in this project", HTTPStatus: http.StatusForbidden},
	{Code: CodeAssigneeNotEligible, Message: "User is not eligible for assignment in this project", HTTPStatus: http.StatusForbidden},
	{Code: CodeLoginFailed, Message: "Invalid email or password", HTTPStatus: http.StatusUnauthorized},
}

func init() {
	for _, e := range coreErrors {
		Registry.Register(e)
	}
}

// codedError binds a specific registered code to a sentinel. errors.Is still
// matches the sentinel, so callers branch on kind while the HTTP layer gets
// the precise code.
type codedError struct {
	sentinel error
	code     string
}

func (e *codedError) Error() string { return Registry.Message(e.code) }

func (e *codedError) Unwrap() error { return e.sentinel }

// WithCode attaches a registered code to a sentinel error.
func WithCode(sentinel error, code string) error {
	return &codedError{sentinel: sentinel, code: code}
}

// CodeForError maps a sentinel error to its default registered code.
// Unknown errors map to the internal error code.
func CodeForError(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrBadRequest):
		return CodeInvalidRequest
	}
	return CodeInternalError
}
