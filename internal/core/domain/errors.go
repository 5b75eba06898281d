package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an identical document is already stored.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document type.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrRequestTooLarge indicates a query without enough constraints to
	// be answerable (FDSN status 413).
	ErrRequestTooLarge = errors.New("request too large")

	// ErrStillProcessing indicates a job has not finished within the
	// polling window. The job keeps running; the handle stays valid.
	ErrStillProcessing = errors.New("still processing")

	// ErrValidationFailed indicates a document failed its type's validator.
	ErrValidationFailed = errors.New("document validation failed")
)

// ParameterError reports a query parameter that could not be translated
// into a predicate. It is always a client-input fault and is surfaced
// verbatim with the parameter name and offending value.
type ParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: invalid value %q: %s", e.Name, e.Value, e.Reason)
}

// Is reports ErrInvalidInput so callers can treat all translation faults
// as client errors without inspecting the concrete type.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError reports a source document that could not be parsed during
// extraction. Queries skip the document and count the failure instead of
// aborting.
type ParseError struct {
	DocumentID string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing document %s: %v", e.DocumentID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
