package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or out-of-range input. It never
	// reaches storage.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness or referential conflict.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotFound indicates that the operation targets an entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage indicates that the connection provider or the underlying store failed.
	ErrStorage = errors.New("storage unavailable")
)

// StorageError carries the failing operation and the driver error.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a storage failure of op. A nil err stays nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

// Unwrap exposes both ErrStorage and the underlying cause to errors.Is/As.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Invalid builds a validation error with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is a conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
