// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parameter file parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeRange indicates a parameter value outside its permitted range
	TypeRange Type = "RANGE_ERROR"

	// TypeCoverage indicates a missing parameter value for a dimension or year
	TypeCoverage Type = "COVERAGE_ERROR"

	// TypeShareSum indicates a set of shares that fails its sum invariant
	TypeShareSum Type = "SHARE_SUM_ERROR"

	// TypeUndefinedRate indicates an EMTR that is undefined for a cell
	TypeUndefinedRate Type = "UNDEFINED_RATE"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Range creates a range error for a parameter value outside its bounds
func Range(param string, value, min, max float64) *Error {
	return Newf(TypeRange, "parameter %s value %g outside permitted range [%g, %g]", param, value, min, max).
		WithContext("parameter", param).
		WithContext("value", value)
}

// Coverage creates a coverage error for a missing parameter value
func Coverage(param string, detail string) *Error {
	return Newf(TypeCoverage, "parameter %s has no value for %s", param, detail).
		WithContext("parameter", param)
}

// ShareSum creates a share-sum invariant error
func ShareSum(group string, sum, tolerance float64) *Error {
	return Newf(TypeShareSum, "shares for %s sum to %g, not 1.0 within %g", group, sum, tolerance).
		WithContext("group", group).
		WithContext("sum", sum)
}

// UndefinedRate creates a per-cell undefined rate error
func UndefinedRate(cell string) *Error {
	return Newf(TypeUndefinedRate, "before-tax return is zero for cell %s; EMTR undefined", cell)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
