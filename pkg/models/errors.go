package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes returned in JSON error responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

var (
	// Lookup errors
	ErrNotFound        = errors.New("resource not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMangaNotFound   = errors.New("manga not found")
	ErrChapterNotFound = errors.New("chapter not found")

	// Input and identity errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden access")

	// Paywall errors
	ErrNotAuthenticated  = errors.New("authentication required")
	ErrInsufficientFunds = errors.New("insufficient coins")

	// Store errors. ErrIndexRequired is a degraded-mode signal for ordered
	// queries and is handled inside the core services.
	ErrReadFailure        = errors.New("store read failed")
	ErrWriteFailure       = errors.New("store write failed")
	ErrIndexRequired      = errors.New("ordered query unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError is the error shape rendered to HTTP clients
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToHTTPError converts to an API response envelope
func (e *AppError) ToHTTPError() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Message,
		Code:      e.Code,
		Details:   e.Details,
		Timestamp: time.Now(),
	}
}

// NewHTTPError builds an AppError with a status code
func NewHTTPError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// ClassifyError maps a domain error to the AppError clients see. Store
// failures collapse into one generic message; the cause is only logged.
func ClassifyError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrInsufficientFunds):
		return NewHTTPError(ErrCodeInsufficientFunds, "not enough coins to unlock this chapter", http.StatusPaymentRequired)
	case errors.Is(err, ErrNotAuthenticated):
		e := NewHTTPError(ErrCodeUnauthorized, "sign in to continue", http.StatusUnauthorized)
		e.Details = map[string]interface{}{"redirect": "/auth"}
		return e
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(ErrCodeUnauthorized, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(ErrCodeForbidden, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrMangaNotFound),
		errors.Is(err, ErrChapterNotFound), errors.Is(err, ErrNotFound):
		return NewHTTPError(ErrCodeNotFound, rootMessage(err), http.StatusNotFound)
	case errors.Is(err, ErrEmailExists), errors.Is(err, ErrConflict):
		return NewHTTPError(ErrCodeConflict, rootMessage(err), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(ErrCodeValidation, validationMessage(err), http.StatusBadRequest)
	case errors.Is(err, ErrServiceUnavailable):
		return NewHTTPError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		return NewHTTPError(ErrCodeInternal, "something went wrong, please try again", http.StatusInternalServerError)
	}
}

// rootMessage returns the message of the innermost known sentinel
func rootMessage(err error) string {
	for _, sentinel := range []error{
		ErrUserNotFound, ErrMangaNotFound, ErrChapterNotFound, ErrNotFound,
		ErrEmailExists, ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// ValidationError carries the client-facing reason of an ErrInvalidInput
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalidf wraps ErrInvalidInput with a client-facing reason
func Invalidf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// validationMessage keeps operation and constraint names out of responses.
// Only reasons built with Invalidf are shown.
func validationMessage(err error) string {
	var v *ValidationError
	if errors.As(err, &v) && v.Reason != "" {
		return v.Reason
	}
	return "invalid value"
}
