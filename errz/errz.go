// Package errz defines the error taxonomy shared by the Ribbon compiler and
// both execution backends, along with the process exit codes they map to.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrSyntax indicates a compile error: malformed token, unexpected token,
	// unbalanced loop, malformed number or undeclared name.
	ErrSyntax ErrorKind = iota
	// ErrBounds indicates the cursor was advanced past the end of the tape.
	ErrBounds
	// ErrOverflow indicates a cell would leave the unsigned byte range.
	ErrOverflow
	// ErrIO indicates end of input on a read or a failed write.
	ErrIO
	// ErrTape indicates the tape was accessed before it was allocated.
	ErrTape
	// ErrInternal indicates a broken program or a backend failure.
	ErrInternal
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "compile error"
	case ErrBounds:
		return "bounds error"
	case ErrOverflow:
		return "overflow error"
	case ErrIO:
		return "io error"
	case ErrTape:
		return "tape error"
	case ErrInternal:
		return "internal error"
	default:
		return "error"
	}
}

// ExitCode returns the process exit status associated with the error kind.
func (k ErrorKind) ExitCode() int {
	switch k {
	case ErrSyntax:
		return 2
	case ErrBounds:
		return 3
	case ErrOverflow:
		return 4
	case ErrIO:
		return 5
	case ErrTape:
		return 6
	default:
		return 1
	}
}

// Sentinel causes wrapped by RuntimeError. Use errors.Is to test for them.
var (
	ErrCursorOutOfBounds = errors.New("cursor out of bounds")
	ErrCellOverflow      = errors.New("cell overflow")
	ErrIOFailure         = errors.New("io failure")
	ErrTapeNotAllocated  = errors.New("tape not allocated")
)

// KindOf returns the ErrorKind of the given error. Errors that are not part
// of the taxonomy are reported as ErrInternal.
func KindOf(err error) ErrorKind {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return ErrSyntax
	}
	var runtimeErr *RuntimeError
	if errors.As(err, &runtimeErr) {
		return runtimeErr.Kind
	}
	switch {
	case errors.Is(err, ErrCursorOutOfBounds):
		return ErrBounds
	case errors.Is(err, ErrCellOverflow):
		return ErrOverflow
	case errors.Is(err, ErrIOFailure):
		return ErrIO
	case errors.Is(err, ErrTapeNotAllocated):
		return ErrTape
	}
	return ErrInternal
}

// ExitCode returns the process exit status for the given error. A nil error
// maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// FriendlyError is an interface for errors that have a human friendly message
// in addition to a the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// Friendly returns the friendliest available message for the error.
func Friendly(err error) string {
	var fe FriendlyError
	if errors.As(err, &fe) {
		return fe.FriendlyErrorMessage()
	}
	return fmt.Sprintf("%s: %s", KindOf(err), err)
}
