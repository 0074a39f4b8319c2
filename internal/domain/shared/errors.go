// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds for the pipeline, usable with errors.Is().
// Every failure in a run maps to exactly one of these; all of them are
// fatal - there is no partial-success mode.
var (
	// ErrNetwork covers unreachable endpoints, timeouts, and non-2xx
	// responses from the dataset API.
	ErrNetwork = errors.New("network error")

	// ErrFormat covers response bodies that cannot be decoded into the
	// expected record structure.
	ErrFormat = errors.New("format error")

	// ErrValidation covers records missing a required field or carrying
	// an unusable value.
	ErrValidation = errors.New("validation error")

	// ErrIO covers output file failures (create, write, sync, rename).
	ErrIO = errors.New("io error")

	// ErrInvalidInput covers bad configuration and malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// PipelineError represents a pipeline failure with context about the stage
// and operation that produced it.
type PipelineError struct {
	Stage   string // e.g. "fetch", "aggregate", "write"
	Op      string // operation that failed, e.g. "Get", "WriteCSV"
	Kind    error  // base error kind for errors.Is() checking
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Stage, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Stage, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *PipelineError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the
// underlying error.
func (e *PipelineError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewPipelineError creates a new pipeline error without an underlying cause.
func NewPipelineError(stage, op string, kind error, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with pipeline context.
func WrapError(stage, op string, kind error, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Kind returns the base error kind of err, or nil if err carries none.
// Useful for reporting the taxonomy bucket at the process boundary.
func Kind(err error) error {
	for _, kind := range []error{ErrNetwork, ErrFormat, ErrValidation, ErrIO, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
