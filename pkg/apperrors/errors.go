// Package apperrors classifies the failures communitydesk can run into.
// Every class degrades to "this one action did not complete"; none is fatal
// to the process.
package apperrors

import (
	"errors"
	"fmt"
)

// Class represents the classification of an error.
type Class string

const (
	// ClassMissingSchema indicates a table or column is absent. The store
	// recovers from it by reconciling the schema and retrying once.
	ClassMissingSchema Class = "missing_schema"

	// ClassTransport indicates a network error, a timeout or a non-2xx
	// response from the sync target. Reported per table, never retried.
	ClassTransport Class = "transport"

	// ClassDataShape indicates remote data that is empty or malformed.
	// Treated as "nothing to import".
	ClassDataShape Class = "data_shape"

	// ClassUserInput indicates a blank required field or an invalid value
	// entered by staff. The record is not persisted.
	ClassUserInput Class = "user_input"

	// ClassNotFound indicates a record id that does not exist.
	ClassNotFound Class = "not_found"

	// ClassForbidden indicates the session role does not allow the action.
	ClassForbidden Class = "forbidden"
)

// Error represents a classified error with context.
type Error struct {
	// Class is the error classification.
	Class Class `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Table is the table involved, if any.
	Table string `json:"table,omitempty"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Table != "" && e.Op != "" {
		msg = fmt.Sprintf("%s (table=%s, op=%s)", msg, e.Table, e.Op)
	} else if e.Table != "" {
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

func newError(class Class, message string, err error) *Error {
	return &Error{Class: class, Message: message, Err: err}
}

// NewMissingSchemaError creates a new missing-schema error.
func NewMissingSchemaError(message string, err error) *Error {
	return newError(ClassMissingSchema, message, err)
}

// NewTransportError creates a new transport error.
func NewTransportError(message string, err error) *Error {
	return newError(ClassTransport, message, err)
}

// NewDataShapeError creates a new data-shape error.
func NewDataShapeError(message string, err error) *Error {
	return newError(ClassDataShape, message, err)
}

// NewUserInputError creates a new user-input error.
func NewUserInputError(message string, err error) *Error {
	return newError(ClassUserInput, message, err)
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(message string) *Error {
	return newError(ClassNotFound, message, nil)
}

// NewForbiddenError creates a new forbidden error.
func NewForbiddenError(message string) *Error {
	return newError(ClassForbidden, message, nil)
}

// WithTable adds table context to an error.
func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

// WithOp adds operation context to an error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// ClassOf returns the class of err, or "" when err is not classified.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// IsMissingSchema returns true if the error is classified as missing-schema.
func IsMissingSchema(err error) bool { return ClassOf(err) == ClassMissingSchema }

// IsTransport returns true if the error is classified as transport.
func IsTransport(err error) bool { return ClassOf(err) == ClassTransport }

// IsDataShape returns true if the error is classified as data-shape.
func IsDataShape(err error) bool { return ClassOf(err) == ClassDataShape }

// IsUserInput returns true if the error is classified as user-input.
func IsUserInput(err error) bool { return ClassOf(err) == ClassUserInput }

// IsNotFound returns true if the error is classified as not-found.
func IsNotFound(err error) bool { return ClassOf(err) == ClassNotFound }

// IsForbidden returns true if the error is classified as forbidden.
func IsForbidden(err error) bool { return ClassOf(err) == ClassForbidden }
