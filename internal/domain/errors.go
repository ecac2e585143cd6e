package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("record not found")
	ErrMediaRejected = errors.New("media rejected")
	ErrStorage       = errors.New("storage failure")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MediaRejectedError is returned when an attachment has the wrong content
// category or exceeds its size limit.
type MediaRejectedError struct {
	Reason   string
	TooLarge bool
}

func NewMediaRejectedError(reason string, tooLarge bool) *MediaRejectedError {
	return &MediaRejectedError{Reason: reason, TooLarge: tooLarge}
}

func (e *MediaRejectedError) Error() string {
	return e.Reason
}

func (e *MediaRejectedError) Is(target error) bool {
	return target == ErrMediaRejected
}

// StorageError wraps an I/O failure of the record store or the blob backend.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
