package hgcm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownFunction indicates a function code the dispatcher does not serve.
	ErrUnknownFunction = errors.New("hgcm: unknown function")

	// ErrUnknownClient indicates a call from a client that never connected.
	ErrUnknownClient = errors.New("hgcm: unknown client")

	// ErrClientExists indicates a second connect with the same client ID.
	ErrClientExists = errors.New("hgcm: client already connected")

	// ErrTooManyClients indicates the connected-client limit was reached.
	ErrTooManyClients = errors.New("hgcm: too many clients")

	// ErrRateLimited indicates the call was rejected by the guest rate limiter.
	ErrRateLimited = errors.New("hgcm: call rate limited")

	// ErrDispatcherClosed indicates the dispatcher has been shut down.
	ErrDispatcherClosed = errors.New("hgcm: dispatcher closed")

	// ErrInvalidConfig indicates a DispatcherConfig failed validation.
	ErrInvalidConfig = errors.New("hgcm: invalid configuration")
)

// ValidationError describes a parameter that failed validation.
type ValidationError struct {
	Field   string // Parameter name, e.g. "name" or "patterns".
	Value   any    // Offending value, if printable.
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("hgcm: validation error for parameter '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// RateLimitError carries the delay after which a rejected call may be retried.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("hgcm: call rate limited, retry after %s", e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
