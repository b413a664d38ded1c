package tslog

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by any operation on a closed Log or on the
	// handles it issued.
	ErrClosed = errors.New("log is closed")

	// ErrSchemaMismatch is returned when a call disagrees with the declared
	// schema of its stream. All schema violations unwrap to this sentinel.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnsupportedType is returned when a value or tag is outside the
	// supported scalar type set.
	ErrUnsupportedType = errors.New("unsupported scalar type")

	// ErrInvalidString is returned when a stream name or label contains a
	// NUL byte, which the format reserves as the string terminator.
	ErrInvalidString = errors.New("string contains NUL byte")
)

// ArityMismatchError indicates a scalar Log call with the wrong number of
// values. It unwraps to ErrSchemaMismatch.
type ArityMismatchError struct {
	Want int
	Got  int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: expected %d values, got %d", e.Want, e.Got)
}

func (e *ArityMismatchError) Unwrap() error { return ErrSchemaMismatch }

// TypeMismatchError indicates a scalar value whose Go type does not match the
// declared field type. It unwraps to ErrSchemaMismatch.
type TypeMismatchError struct {
	Field int
	Want  ScalarType
	Got   string // Go type of the rejected value
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: field %d expects %s, got %s", e.Field, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrSchemaMismatch }

// ShapeMismatchError indicates a vector or matrix whose dimensions do not
// match the declared shape. Vectors are reported as 1 x N.
// It unwraps to ErrSchemaMismatch.
type ShapeMismatchError struct {
	WantRows, WantCols int
	GotRows, GotCols   int
}

func (e *ShapeMismatchError) Error() string {
	if e.WantRows == 1 && e.GotRows == 1 {
		return fmt.Sprintf("schema mismatch: expected %d elements, got %d", e.WantCols, e.GotCols)
	}
	return fmt.Sprintf("schema mismatch: expected %dx%d, got %dx%d", e.WantRows, e.WantCols, e.GotRows, e.GotCols)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrSchemaMismatch }

// validString rejects strings carrying the terminator byte.
func validString(what, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return fmt.Errorf("%w: %s %q", ErrInvalidString, what, s)
		}
	}
	return nil
}
