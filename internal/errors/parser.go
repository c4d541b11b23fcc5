package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gamexpress/storefront/internal/api"
)

// GenericNetworkMessage is shown when a request could not complete.
const GenericNetworkMessage = "Unable to reach the store right now. Please try again."

// AppError is an error carrying a code and a message fit for display.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError without a cause.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around a cause.
func Wrap(err error, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	Code    string
	Message string
	Status  int
}

// FromAPI converts an API client failure into an AppError. The message is the
// server's message when it sent one, else fallback.
func FromAPI(err error, fallback string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	info := ParseError(err, fallback)
	return Wrap(err, info.Code, info.Message)
}

// ParseError maps any error to a code, a user displayable message and the
// HTTP status a gateway should answer with.
func ParseError(err error, fallback string) ErrorInfo {
	if fallback == "" {
		fallback = "Something went wrong. Please try again."
	}
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: fallback, Status: http.StatusInternalServerError}
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return ErrorInfo{Code: appErr.Code, Message: appErr.Message, Status: statusForCode(appErr.Code)}
	}

	message := api.ServerMessage(err)
	if message == "" {
		message = fallback
	}

	switch {
	case stderrors.Is(err, api.ErrCSRF):
		return ErrorInfo{Code: AuthCSRFFailed, Message: message, Status: 419}
	case stderrors.Is(err, api.ErrNetwork),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled):
		return ErrorInfo{Code: NetworkError, Message: GenericNetworkMessage, Status: http.StatusBadGateway}
	case stderrors.Is(err, api.ErrUnauthorized):
		return ErrorInfo{Code: AuthUnauthorized, Message: message, Status: http.StatusUnauthorized}
	case stderrors.Is(err, api.ErrForbidden):
		return ErrorInfo{Code: AuthzForbidden, Message: message, Status: http.StatusForbidden}
	case stderrors.Is(err, api.ErrNotFound):
		return ErrorInfo{Code: ResourceNotFound, Message: message, Status: http.StatusNotFound}
	case stderrors.Is(err, api.ErrValidation):
		return ErrorInfo{Code: ValidationInvalidInput, Message: message, Status: http.StatusUnprocessableEntity}
	case stderrors.Is(err, api.ErrUnexpectedResponse):
		return ErrorInfo{Code: InternalUnexpectedResponse, Message: fallback, Status: http.StatusBadGateway}
	default:
		return ErrorInfo{Code: InternalServerError, Message: message, Status: http.StatusBadGateway}
	}
}

// Code returns the AppError code of err, or "".
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Message returns the user displayable message of err.
func Message(err error, fallback string) string {
	return ParseError(err, fallback).Message
}

func statusForCode(code string) int {
	switch code {
	case AuthUnauthorized, AuthInvalidCredentials, AuthTokenExpired, AuthTokenInvalid:
		return http.StatusUnauthorized
	case AuthCSRFFailed:
		return 419
	case AuthzForbidden:
		return http.StatusForbidden
	case ValidationInvalidInput, ValidationInvalidQuantity, ValidationSoldOut, ValidationInvalidFile:
		return http.StatusUnprocessableEntity
	case CartStaleItem:
		return http.StatusConflict
	case ResourceNotFound:
		return http.StatusNotFound
	case NetworkError, InternalUnexpectedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
