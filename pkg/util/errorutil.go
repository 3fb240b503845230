package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewInvalidCredentials covers failed password or OTP verification.
func NewInvalidCredentials(message string) error {
	if message == "" {
		message = "invalid credentials"
	}
	return NewDomainError("INVALID_CREDENTIALS", message, http.StatusUnauthorized, nil)
}

// NewWeakCredential signals a password below the policy minimum.
func NewWeakCredential(message string) error {
	return NewDomainError("WEAK_CREDENTIAL", message, http.StatusBadRequest, nil)
}

// NewDuplicateAccount signals sign-up with an already-registered identifier.
func NewDuplicateAccount(message string) error {
	return NewDomainError("DUPLICATE_ACCOUNT", message, http.StatusConflict, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewServiceError wraps a failed remote operation.
func NewServiceError(operation string, err error) error {
	return &DomainError{
		Code:       "SERVICE_ERROR",
		Message:    fmt.Sprintf("%s failed", operation),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewTimeout marks a backend call that exceeded its deadline. It is a
// distinct variant of SERVICE_ERROR so callers can tell the two apart.
func NewTimeout(operation string) error {
	return &DomainError{
		Code:       "TIMEOUT",
		Message:    fmt.Sprintf("%s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err is a DomainError carrying the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound reports whether err resolves to a NOT_FOUND condition.
func IsNotFound(err error) bool {
	return IsCode(err, "NOT_FOUND") || errors.Is(err, pgx.ErrNoRows)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewTimeout("operation").(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// FromRemote maps a raw error from a backend call into the taxonomy:
// deadline expiry becomes TIMEOUT, missing rows NOT_FOUND, anything else
// SERVICE_ERROR. DomainErrors pass through untouched.
func FromRemote(operation string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeout(operation)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(operation, nil)
	}
	return NewServiceError(operation, err)
}
