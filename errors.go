package lnqm

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptIndex is returned when a slice index is inconsistent with
	// its buffer or with the other fields.
	ErrCorruptIndex = errors.New("corrupt slice index")

	// ErrSchemaMismatch is returned when the fields present differ from the
	// fields expected.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnsupportedElementType is returned for element types outside
	// float64, float32, int64, uint64 and UTF-8 text.
	ErrUnsupportedElementType = errors.New("unsupported element type")

	// ErrOutOfRange is returned for sample indices or fields that do not exist.
	ErrOutOfRange = errors.New("out of range")

	// ErrIO wraps failures to open, read or write a file.
	ErrIO = errors.New("i/o error")

	// ErrNegativeValue is returned when saving a negative integer without
	// WithAllowNegative.
	ErrNegativeValue = errors.New("negative value in unsigned storage")
)

// FieldError records a failure scoped to one field.
//
// The underlying sentinel can be matched with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
