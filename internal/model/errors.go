package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")

	// ErrNameTaken is wrapped by the ValidationError returned when a rename
	// collides with another customer and merging is disabled.
	ErrNameTaken = errors.New("name already belongs to another customer")
	// ErrDuplicateSubmit is wrapped when the same idempotency key is still
	// being recorded by another request.
	ErrDuplicateSubmit = errors.New("request with this idempotency key is in progress")
)

// ValidationError reports malformed input. It is raised before the store is
// touched, except for rename collisions which need a lookup.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError names the missing entity by id, or by Key for name lookups.
type NotFoundError struct {
	Entity string
	ID     int64
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a driver, constraint or transaction failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AsStorageError leaves classified errors untouched and wraps anything else.
func AsStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
