// Package gudafem structured error types for device runtime failures
package gudafem

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Allocation and release errors
	ErrTypeMemory ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Host/device copy errors
	ErrTypeTransfer
	// Extent and size agreement errors
	ErrTypeShape
	// Object lifecycle errors (use before allocation, copied owners)
	ErrTypeState
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gudafem %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gudafem %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeTransfer:
		return "Transfer"
	case ErrTypeShape:
		return "Shape"
	case ErrTypeState:
		return "State"
	default:
		return "Unknown"
	}
}

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &Error{Type: ErrTypeMemory, Op: op, Message: message, Err: err}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewTransferError creates a host/device copy error
func NewTransferError(op string, message string, err error) error {
	return &Error{Type: ErrTypeTransfer, Op: op, Message: message, Err: err}
}

// NewShapeError creates a size or extent agreement error
func NewShapeError(op string, message string) error {
	return &Error{Type: ErrTypeShape, Op: op, Message: message}
}

// NewStateError creates a lifecycle error
func NewStateError(op string, message string) error {
	return &Error{Type: ErrTypeState, Op: op, Message: message}
}

var (
	// ErrOutOfMemory indicates the context memory limit would be exceeded
	ErrOutOfMemory = NewMemoryError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates a non-positive allocation size
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrNullPointer indicates an operation on a zero DevicePtr
	ErrNullPointer = NewInvalidArgError("Memory", "null pointer")

	// ErrDoubleFree indicates a block was released twice
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrUnknownPointer indicates a pointer this context never handed out
	ErrUnknownPointer = NewMemoryError("Free", "pointer not found in allocation pool", nil)

	// ErrOutOfRange indicates a copy or reduction past the end of a block
	ErrOutOfRange = NewTransferError("Memcpy", "byte count exceeds operand size", nil)
)

func errorType(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeMemory
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidArg
}

// IsTransferError checks if an error is a host/device copy error
func IsTransferError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTransfer
}

// IsShapeError checks if an error is a size agreement error
func IsShapeError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeShape
}

// IsStateError checks if an error is a lifecycle error
func IsStateError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeState
}
