// Package apperr defines the error taxonomy shared by the registry,
// the order service and the API layer. Every sentinel below is
// terminal for the current attempt: no partial mutation is ever
// committed on an error path. Only ErrUnavailable is retryable without
// caller intervention.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input (negative price, past
	// schedule date, empty note content).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing order, port, cabinet or operator.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an actor lacking the role required for the
	// requested operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition marks a transition not legal from the
	// order's current status. The wrapped message carries the current
	// status so the caller can resynchronize.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState marks a port-registry precondition violation,
	// e.g. reserving a port that is not available.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict marks a concurrent modification detected at the
	// persistence layer. Retry from a fresh read.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks a transient infrastructure failure. The
	// attempt had no side effects and may be retried as-is.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// Validation returns a validation error with a caller-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error naming the missing entity.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden returns a forbidden error with a caller-facing message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// InvalidTransition returns an invalid-transition error that includes
// the order's current status.
func InvalidTransition(action string, current string) error {
	return fmt.Errorf("%w: cannot %s an order in status %q", ErrInvalidTransition, action, current)
}

// InvalidState returns a registry precondition error.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Conflict returns a concurrent-modification error.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Unavailable wraps a transient infrastructure failure.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
