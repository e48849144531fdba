// Package errors defines the coded errors returned across linkgraph.
//
// Every rejected operation returns an [*Error] whose [Code] tells callers
// what went wrong without parsing text. The item API promises that an
// operation returning an INVALID_*, UNKNOWN_KIND or DUPLICATE_ID error changed
// nothing. NOT_FOUND is informational: removing or hiding an item that is
// already gone reports it and otherwise does nothing.
//
//	if _, err := g.AddItem(model.KindNode, cfg); errors.Is(err, errors.ErrCodeDuplicateID) {
//	    // pick another id
//	}
//
// The package is meant to be imported as "errors"; [Join] covers the one
// standard library helper callers still need.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an error.
type Code string

// Request errors: the operation was rejected and nothing changed.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidID     Code = "INVALID_ID"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeUnknownKind   Code = "UNKNOWN_KIND"
	ErrCodeDuplicateID   Code = "DUPLICATE_ID"
)

// Lookup and runtime errors.
const (
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	// ErrCodeInvariant reports model state that the API should never
	// produce. Seeing it is a bug.
	ErrCodeInvariant Code = "INVARIANT_VIOLATION"
)

// Rejected reports whether c is a request error: the caller asked for
// something malformed or conflicting.
func (c Code) Rejected() bool {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidID,
		ErrCodeInvalidFormat, ErrCodeInvalidPath, ErrCodeUnknownKind, ErrCodeDuplicateID:
		return true
	}
	return false
}

// Error carries a code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// NotFound reports a missing item.
func NotFound(id string) *Error {
	return New(ErrCodeNotFound, "item %q not found", id)
}

// Is reports whether any *Error in err's tree carries code. The tree
// includes causes and the members of joined errors.
func Is(err error, code Code) bool {
	found := false
	walk(err, func(e *Error) bool {
		found = e.Code == code
		return !found
	})
	return found
}

// GetCode returns the code of the outermost *Error in err, or "".
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Join is errors.Join from the standard library.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// walk visits every *Error in err's tree depth first until visit returns
// false.
func walk(err error, visit func(*Error) bool) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(*Error); ok && !visit(e) {
		return false
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if !walk(inner, visit) {
				return false
			}
		}
	}
	return true
}
