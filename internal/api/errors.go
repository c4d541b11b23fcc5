package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork is returned when the request could not complete
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for missing, expired or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCSRF is returned when the CSRF preflight fails or the server rejects the token
	ErrCSRF = errors.New("csrf token mismatch")

	// ErrForbidden is returned when the principal lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the addressed resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when the server rejects the request payload
	ErrValidation = errors.New("validation failed")

	// ErrServer is returned for 5xx and any other unexpected status
	ErrServer = errors.New("server error")

	// ErrUnexpectedResponse is returned when a success body does not match the endpoint schema
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

// ErrorResponse is the error body the storefront API sends.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Error is a non 2xx answer from the API.
type Error struct {
	StatusCode int
	Message    string // server supplied message, may be empty
	Fields     map[string][]string
	kind       error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func newError(status int, body ErrorResponse) *Error {
	return &Error{
		StatusCode: status,
		Message:    body.Message,
		Fields:     body.Errors,
		kind:       kindForStatus(status),
	}
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case 419: // Laravel's "page expired" for CSRF mismatches
		return ErrCSRF
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return ErrValidation
	default:
		return ErrServer
	}
}

// ServerMessage extracts the server supplied message from err, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
