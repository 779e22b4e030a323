package models

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every error returned from Build when the
// labels or matrix break a shape or value invariant.
var ErrMalformedInput = errors.New("malformed input")

// ErrCycle is returned by StudyOrder when the prerequisites form a cycle.
var ErrCycle = errors.New("prerequisite cycle")

// MalformedKind identifies which invariant a malformed input broke.
type MalformedKind int

const (
	// DimensionMismatch means n, the label count or a row length disagree.
	DimensionMismatch MalformedKind = iota + 1
	// InvalidCell means a matrix entry is something other than 0 or 1.
	InvalidCell
)

func (k MalformedKind) String() string {
	switch k {
	case DimensionMismatch:
		return "dimension mismatch"
	case InvalidCell:
		return "invalid cell value"
	default:
		return "unknown"
	}
}

// MalformedInputError describes why a graph could not be built.
// Row and Col are -1 when they do not apply.
type MalformedInputError struct {
	Kind   MalformedKind
	Row    int
	Col    int
	Detail string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Kind, e.Detail)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

func dimensionError(row int, format string, args ...any) error {
	return &MalformedInputError{
		Kind:   DimensionMismatch,
		Row:    row,
		Col:    -1,
		Detail: fmt.Sprintf(format, args...),
	}
}

func cellError(row, col int, value float64) error {
	return &MalformedInputError{
		Kind:   InvalidCell,
		Row:    row,
		Col:    col,
		Detail: fmt.Sprintf("matrix[%d][%d] = %v, want 0 or 1", row, col, value),
	}
}
