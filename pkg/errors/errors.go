// Package errors provides structured error handling for the bridge
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents violations of the bridge's own bookkeeping.
	// Errors of this type are programmer-error class and are raised through
	// Assertf as panics rather than returned.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents malformed foreign input: a structure that
	// violates the interchange contract (missing format tag, wrong buffer
	// count, released node, arity mismatch).
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCapability represents well-formed input that asks for a feature
	// outside the supported surface (dictionary encoding, nested array data,
	// unmapped type kinds).
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsCapability reports whether err is an unsupported-operation error.
func IsCapability(err error) bool {
	return IsType(err, ErrorTypeCapability)
}

// IsValidation reports whether err is a malformed-input error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// Assertf panics with an internal error when cond is false. Internal
// invariant violations are not meant to be handled by ordinary callers.
func Assertf(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	panic(&Error{
		Type:    ErrorTypeInternal,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	})
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
