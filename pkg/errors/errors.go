// Package errors provides structured error types for pcellkit.
//
// Every failure raised by the layout engine carries a machine-readable [Code]
// so that the CLI, the HTTP API and library callers can branch on the kind of
// failure without parsing messages:
//
//   - GEOMETRY_ERROR: invalid polygon, cross-section or transform input
//   - PORT_MISMATCH: two ports cannot be connected without a taper
//   - ROUTING_ERROR: no feasible path honoring bend radius and spacing
//   - CACHE_KEY_COLLISION: two different builds map to one cache key
//
// # Usage
//
//	err := errors.New(errors.ErrCodeRouting, "lateral offset %.3f below bend diameter", dy)
//	if errors.Is(err, errors.ErrCodeRouting) {
//	    // try with S-bends enabled
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeGeometry, origErr, "build %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout engine errors
	ErrCodeGeometry          Code = "GEOMETRY_ERROR"
	ErrCodePortMismatch      Code = "PORT_MISMATCH"
	ErrCodeRouting           Code = "ROUTING_ERROR"
	ErrCodeCacheKeyCollision Code = "CACHE_KEY_COLLISION"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidParams  Code = "INVALID_PARAMS"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidNetlist Code = "INVALID_NETLIST"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeCellNotFound Code = "CELL_NOT_FOUND"
	ErrCodePortNotFound Code = "PORT_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole chain, so a routing failure wrapped by a netlist build
// error still reports true for ErrCodeRouting.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Geometry is shorthand for New(ErrCodeGeometry, ...).
func Geometry(format string, args ...any) *Error {
	return New(ErrCodeGeometry, format, args...)
}

// PortMismatch is shorthand for New(ErrCodePortMismatch, ...).
func PortMismatch(format string, args ...any) *Error {
	return New(ErrCodePortMismatch, format, args...)
}

// Routing is shorthand for New(ErrCodeRouting, ...).
func Routing(format string, args ...any) *Error {
	return New(ErrCodeRouting, format, args...)
}
