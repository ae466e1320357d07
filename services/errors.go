package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError rejects malformed or out-of-range input before any write.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional sentinel, e.g. ErrNoReference
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError covers both absent records and ownership failures, so a
// caller probing someone else's entry cannot tell it exists.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// BusinessError wraps an unexpected orchestration failure, preserving the
// original cause for diagnostics.
type BusinessError struct {
	Op  string
	Err error
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BusinessError) Unwrap() error { return e.Err }

// DatabaseError marks a storage-layer failure.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// wrapDB translates gorm errors at the service boundary: record-not-found
// becomes a NotFoundError for the given resource, everything else a
// DatabaseError.
func wrapDB(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return &DatabaseError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
