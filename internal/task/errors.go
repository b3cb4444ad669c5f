package task

import (
	"errors"
	"fmt"
)

// ValidationError is returned when caller-supplied input violates a field
// constraint, such as an empty title.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NotFoundError is returned when an operation targets an id with no row.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// StorageError wraps a failure of the underlying storage engine: connection,
// read, write or migration. Op names the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying driver error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err in a StorageError for op. Nil stays nil, and errors
// already classified (validation, not-found, storage) pass through unchanged.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		se *StorageError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is, or wraps, a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
