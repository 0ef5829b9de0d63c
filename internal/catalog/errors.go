package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a field is not part of any loader group.
	ErrUnknownField = errors.New("unknown field")
	// ErrRemoteDataMissing is returned when the tracker did not supply a field.
	ErrRemoteDataMissing = errors.New("remote data missing")
)

// FieldError describes a failed field read.
type FieldError struct {
	Entity string
	ID     string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s: field %q: %v", e.Entity, e.ID, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseError reports a tracker payload that did not have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(source, format string, args ...any) error {
	return &ParseError{Source: source, Err: fmt.Errorf(format, args...)}
}
