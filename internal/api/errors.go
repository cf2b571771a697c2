package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Well-known error codes used in the server's error envelope.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Error is the structured error returned by the API server: a stable
// machine-readable code plus a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// HTTPStatus is the transport status the envelope arrived with.
	HTTPStatus int `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is a
// 401-class failure. Such failures are a process-wide signal: the
// client's unauthorized callback handles them, and callers must not
// treat them as retryable collection errors.
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatus == http.StatusUnauthorized ||
		apiErr.Code == ErrCodeUnauthorized ||
		apiErr.Code == ErrCodeInvalidCredentials
}
