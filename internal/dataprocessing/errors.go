package dataprocessing

import (
	"errors"
	"fmt"
)

// MissingColumnError reports a required column absent after header promotion.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("'%s' column not found", e.Column)
}

// TypeCoercionError reports a value that cannot be coerced to its column type.
// Row is the 0-based data row index after header promotion.
type TypeCoercionError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *TypeCoercionError) Error() string {
	msg := fmt.Sprintf("column '%s' row %d: cannot coerce %q", e.Column, e.Row, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeCoercionError) Unwrap() error {
	return e.Err
}

// ParseError reports an unreadable or structurally unrecognizable input.
type ParseError struct {
	Pipeline string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Pipeline != "" {
		msg = e.Pipeline + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(pipeline, reason string, err error) *ParseError {
	return &ParseError{Pipeline: pipeline, Reason: reason, Err: err}
}

// ErrorKind classifies a pipeline failure for display.
type ErrorKind string

const (
	KindMissingColumn ErrorKind = "missing_column"
	KindTypeCoercion  ErrorKind = "type_coercion"
	KindParse         ErrorKind = "parse"
)

// Classify returns the failure kind of err and, when known, the offending column.
// Errors outside the taxonomy classify as KindParse.
func Classify(err error) (ErrorKind, string) {
	var missing *MissingColumnError
	if errors.As(err, &missing) {
		return KindMissingColumn, missing.Column
	}
	var coercion *TypeCoercionError
	if errors.As(err, &coercion) {
		return KindTypeCoercion, coercion.Column
	}
	return KindParse, ""
}

// UserMessage renders err the way the dashboard shows it to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var missing *MissingColumnError
	if errors.As(err, &missing) {
		return fmt.Sprintf("Missing column: '%s'", missing.Column)
	}
	var coercion *TypeCoercionError
	if errors.As(err, &coercion) {
		msg := fmt.Sprintf("Invalid value in column '%s' at row %d: %q", coercion.Column, coercion.Row, coercion.Value)
		if coercion.Err != nil {
			msg += " (" + coercion.Err.Error() + ")"
		}
		return msg
	}
	return fmt.Sprintf("Failed to process file: %v", err)
}
