package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Entity-specific errors below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second study card for the same verse).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or the database rejects it with a check constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInternal is returned for unexpected storage failures that have no
	// more specific classification.
	ErrInternal = errors.New("internal store error")

	// ErrStudyCardNotFound indicates the learner has no study card for the verse.
	ErrStudyCardNotFound = fmt.Errorf("%w: study card", ErrNotFound)

	// ErrVerseNotFound indicates the referenced verse does not exist.
	ErrVerseNotFound = fmt.Errorf("%w: verse", ErrNotFound)

	// ErrSessionNotFound indicates the study session tally does not exist or expired.
	ErrSessionNotFound = fmt.Errorf("%w: study session", ErrNotFound)

	// ErrStudyCardExists indicates the verse is already in the learner's deck.
	ErrStudyCardExists = fmt.Errorf("%w: study card", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
// Backends wrap unexpected failures in it; the wrapped error still carries the
// sentinel classification for errors.Is.
type StoreError struct {
	Entity    string // The entity type (e.g., "study_card", "study_session")
	Operation string // The operation that failed (e.g., "create", "select_due")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
