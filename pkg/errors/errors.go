// Package errors provides structured error types for the juliaset engine.
//
// This package defines error codes and types that enable:
//   - Distinguishable failure kinds for generators (singular inverse,
//     arithmetic failure, resource exhaustion)
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the CLI
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_* / ZERO_*: construction and input validation failures
//   - SINGULAR_INVERSE, ARITHMETIC_FAILURE, RESOURCE_EXHAUSTED: generation aborts
//   - IO_FAILURE: spill and cache file problems
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeZeroCoefficient, "leading coefficient is zero")
//	if errors.IsValidation(err) {
//	    // reject the function
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write spill file %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidFormat       Code = "INVALID_FORMAT"
	ErrCodeInvalidParams       Code = "INVALID_PARAMS"
	ErrCodeInvalidMultiplicity Code = "INVALID_MULTIPLICITY"
	ErrCodeZeroCoefficient     Code = "ZERO_COEFFICIENT"

	// Generation failures
	ErrCodeSingularInverse   Code = "SINGULAR_INVERSE"
	ErrCodeArithmetic        Code = "ARITHMETIC_FAILURE"
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Storage errors
	ErrCodeIO       Code = "IO_FAILURE"
	ErrCodeNotFound Code = "NOT_FOUND"

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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err rejects an input function at construction
// time (zero multiplicity or zero leading coefficient).
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidMultiplicity, ErrCodeZeroCoefficient:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// Generation failures map to the fixed wording shown to users; other *Error
// values return their message without the code prefix, and foreign errors
// return their string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Code {
	case ErrCodeSingularInverse:
		return "cannot invert: zero determinant"
	case ErrCodeArithmetic:
		return "arithmetic failure: division by zero or overflow"
	case ErrCodeResourceExhausted:
		return "ran out of memory"
	}
	return e.Message
}
