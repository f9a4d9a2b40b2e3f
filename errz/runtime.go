package errz

import (
	"bytes"
	"fmt"
)

// RuntimeError is a fatal error raised while executing a program. There is no
// recovery: the run stops at the first one.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	IP      int // index of the failing instruction, -1 if unknown
	Line    int // 1-based source line, 0 if unknown
	Cursor  int // cursor position when the error occurred, -1 if unknown
	Cause   error
}

// NewRuntimeError creates a RuntimeError wrapping the sentinel cause that
// matches the kind.
func NewRuntimeError(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		IP:      -1,
		Cursor:  -1,
		Cause:   sentinelFor(kind),
	}
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case ErrBounds:
		return ErrCursorOutOfBounds
	case ErrOverflow:
		return ErrCellOverflow
	case ErrIO:
		return ErrIOFailure
	case ErrTape:
		return ErrTapeNotAllocated
	default:
		return nil
	}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the sentinel for the error kind followed by the underlying
// cause, so errors.Is matches both.
func (e *RuntimeError) Unwrap() []error {
	var errs []error
	if sentinel := sentinelFor(e.Kind); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Cause != nil && e.Cause != sentinelFor(e.Kind) {
		errs = append(errs, e.Cause)
	}
	return errs
}

// WithCause records the underlying cause of the error. The kind sentinel
// stays reachable through Unwrap.
func (e *RuntimeError) WithCause(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// At records where the error happened.
func (e *RuntimeError) At(ip, line, cursor int) *RuntimeError {
	e.IP = ip
	e.Line = line
	e.Cursor = cursor
	return e
}

// FriendlyErrorMessage returns a human-friendly error message including the
// execution state at the time of the failure.
func (e *RuntimeError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))
	if e.Line > 0 {
		msg.WriteString(fmt.Sprintf("  line:        %d\n", e.Line))
	}
	if e.IP >= 0 {
		msg.WriteString(fmt.Sprintf("  instruction: %d\n", e.IP))
	}
	if e.Cursor >= 0 {
		msg.WriteString(fmt.Sprintf("  cursor:      %d\n", e.Cursor))
	}
	if e.Cause != nil && e.Cause != sentinelFor(e.Kind) {
		msg.WriteString(fmt.Sprintf("  cause:       %v\n", e.Cause))
	}
	return msg.String()
}
