package sfddust

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is. The typed errors below wrap them.
var (
	ErrMapNotFound   = errors.New("dust map not found")
	ErrMapFormat     = errors.New("invalid dust map")
	ErrShapeMismatch = errors.New("l and b shapes differ")
	ErrInvalidOrder  = errors.New("unsupported interpolation order")
)

// MapNotFoundError is returned when a hemisphere's backing file is absent
// or cannot be opened.
type MapNotFoundError struct {
	Hemisphere Hemisphere
	Path       string
	Err        error
}

func (e *MapNotFoundError) Error() string {
	return fmt.Sprintf("%s map %s: %v", e.Hemisphere, e.Path, e.Err)
}

func (e *MapNotFoundError) Unwrap() []error { return []error{ErrMapNotFound, e.Err} }

// MapFormatError is returned when a backing file cannot be decoded into a
// projection record and a square grid.
type MapFormatError struct {
	Path string // empty when decoding from memory
	Err  error
}

func (e *MapFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid dust map: %v", e.Err)
	}
	return fmt.Sprintf("%s: invalid dust map: %v", e.Path, e.Err)
}

func (e *MapFormatError) Unwrap() []error { return []error{ErrMapFormat, e.Err} }

// ShapeMismatchError is returned by Query when l and b differ in shape.
type ShapeMismatchError struct {
	L, B []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("l shape %v != b shape %v", e.L, e.B)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }
