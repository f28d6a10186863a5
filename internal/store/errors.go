package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrKeyNotFound is returned by a KV when the requested key has never been written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStorageUnavailable is returned when the storage medium cannot be read or written.
	// Reads degrade to empty defaults; writes surface this error to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptData is returned when a persisted blob cannot be parsed or fails validation.
	ErrCorruptData = errors.New("corrupt persisted data")

	// ErrInvalidImport is returned when a snapshot is unparseable, lacks a required
	// collection or contains invalid records. The current state is left untouched.
	ErrInvalidImport = errors.New("invalid import snapshot")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a multi-key write cannot be committed.
	ErrTransactionFailed = errors.New("transaction failed")
)

// IsNotFoundError checks if the error means the key has never been written.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The collection (e.g., "cards", "reviews")
	Operation string // The operation that failed (e.g., "save", "import")
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
