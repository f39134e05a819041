package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed client input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a third-party service that was unreachable or returned
	// something unusable. Fallback tiers absorb it.
	ErrUpstream = errors.New("upstream failure")
	// ErrNoResults marks an upstream call that succeeded but matched nothing.
	ErrNoResults = errors.New("no results")
)

// ValidationError carries a client-facing message for a rejected input.
type ValidationError struct {
	Msg string
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ResolutionError reports that a location could not be determined.
type ResolutionError struct {
	Msg string
	Err error
}

func (e *ResolutionError) Error() string { return e.Msg }

func (e *ResolutionError) Unwrap() error { return e.Err }

// PersistenceError wraps a store rejection. Its message is surfaced to clients.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
