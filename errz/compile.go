package errz

import (
	"fmt"
	"strings"
)

// CompileError represents a compilation error. Compilation stops at the first
// one; no part of the program is executed.
type CompileError struct {
	Message  string
	Location SourceLocation
	Note     string
}

// NewCompileError creates a CompileError at the given location.
func NewCompileError(loc SourceLocation, format string, args ...any) *CompileError {
	return &CompileError{
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

// WithNote attaches a hint shown below the source excerpt.
func (e *CompileError) WithNote(note string) *CompileError {
	e.Note = note
	return e
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if !e.Location.IsZero() {
		b.WriteString("\n\nlocation: ")
		b.WriteString(e.Location.String())
		fmt.Fprintf(&b, " (line %d, column %d)", e.Location.Line, e.Location.Column)
	}
	return b.String()
}

// Line returns the 1-based line number of the error.
func (e *CompileError) Line() int {
	return e.Location.Line
}

// FriendlyErrorMessage returns the message with the offending source line and
// a caret under the column.
func (e *CompileError) FriendlyErrorMessage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compile error: %s\n", e.Message)
	if e.Location.IsZero() {
		return b.String()
	}
	fmt.Fprintf(&b, "  --> %s\n", e.Location)
	if e.Location.Source != "" {
		lineNum := fmt.Sprintf("%d", e.Location.Line)
		padding := strings.Repeat(" ", len(lineNum)+1)
		b.WriteString(padding + "|\n")
		b.WriteString(lineNum + " | " + e.Location.Source + "\n")
		if e.Location.Column > 0 {
			b.WriteString(padding + "| " + strings.Repeat(" ", e.Location.Column-1) + "^\n")
		}
	}
	if e.Note != "" {
		b.WriteString("   note: " + e.Note + "\n")
	}
	return b.String()
}
