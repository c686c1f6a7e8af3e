// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Consent errors.
	ErrConsentRequired = errors.New("consent required")
	ErrNoConsentRecord = errors.New("no consent record")

	// Input errors.
	ErrMalformedInput = errors.New("malformed input")
	ErrInvalidWindow  = errors.New("invalid analysis window")

	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// NewMalformedInputError wraps a snapshot validation failure so callers
// can test for ErrMalformedInput.
func NewMalformedInputError(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedInput, err)
}

// IsRetryable determines if an error should trigger a retry. Errors
// from external collaborators are assumed transient unless explicitly
// marked otherwise or the context is already done.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
