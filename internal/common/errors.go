package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Every component surfaces failures to its caller wrapped
// around exactly one of these sentinels; nothing is retried in this core.
var (
	ErrValidation = errors.New("validation failed")
	ErrCredential = errors.New("credential invalid or unrefreshable")
	ErrProvider   = errors.New("calendar provider rejected the request")
	ErrTransient  = errors.New("transient network failure")
	ErrNotFound   = errors.New("resource not found")
	ErrDatabase   = errors.New("database error")
	ErrInternal   = errors.New("internal error")
)

// Stable error codes, used in logs and the API error payload.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeCredential = "CREDENTIAL_ERROR"
	CodeProvider   = "PROVIDER_ERROR"
	CodeTransient  = "TRANSIENT_IO_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Cause: ErrValidation}
}

func NewCredentialError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrCredential
	}
	return &AppError{Code: CodeCredential, Message: message, Cause: cause}
}

func NewTransientError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrTransient
	}
	return &AppError{Code: CodeTransient, Message: message, Cause: cause}
}

// ProviderError carries the calendar provider's HTTP status and raw body so
// callers can surface exactly what was rejected. Never retried here.
type ProviderError struct {
	Status int
	Body   []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider status %d: %s", CodeProvider, e.Status, string(e.Body))
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}

func NewProviderError(status int, body []byte) *ProviderError {
	return &ProviderError{Status: status, Body: body}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf maps an error to its stable code for logging and API payloads.
func CodeOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrCredential):
		return CodeCredential
	case errors.Is(err, ErrProvider):
		return CodeProvider
	case errors.Is(err, ErrTransient):
		return CodeTransient
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
