package common

import (
	"errors"
	"fmt"
	"strings"
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

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrAuthorizationExpired is raised by the field extraction oracle when its
	// credential is missing, expired or revoked. It aborts a grouping run.
	ErrAuthorizationExpired = errors.New("authorization expired")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// AuthorizationExpired wraps a provider failure so that errors.Is matches
// ErrAuthorizationExpired while keeping the provider message.
func AuthorizationExpired(provider string, cause error) error {
	return NewAppError("AUTH_EXPIRED", provider+" rejected the credential", errors.Join(ErrAuthorizationExpired, cause))
}

// IsAuthorizationExpired also recognizes the message some providers return
// for a revoked key.
func IsAuthorizationExpired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthorizationExpired) {
		return true
	}
	return strings.Contains(err.Error(), "Requested entity was not found")
}
