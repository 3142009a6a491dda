// Package apperr defines the error kinds shared by repositories, services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before reaching the core
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing row
	ErrNotFound = errors.New("not found")
	// ErrDependencyUnavailable marks an unreachable collaborator (database, role lookup)
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrInvalidStatus marks a lifecycle transition that is not allowed from the current status
	ErrInvalidStatus = errors.New("invalid status")
	// ErrUnauthorized marks a request without a usable identity
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks a write that lost against a concurrent one
	ErrConflict = errors.New("conflict")
)

// Validation wraps ErrValidation with a message
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind of the missing object
func NotFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}

// InvalidStatus wraps ErrInvalidStatus with the offending status
func InvalidStatus(status string) error {
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// Unavailable wraps err so that it matches ErrDependencyUnavailable
func Unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w", what, errors.Join(ErrDependencyUnavailable, err))
}

// Conflict wraps err so that it matches ErrConflict
func Conflict(what string, err error) error {
	return fmt.Errorf("%s: %w", what, errors.Join(ErrConflict, err))
}
