// Package bytecode provides the immutable representation of compiled Ribbon
// programs.
//
// A [Program] is a flat, ordered list of [Instruction] values produced by the
// compiler and consumed by both execution backends: the interpreter in the vm
// package and the native code generator in the jit package. Programs are
// created once and may be shared across goroutines.
//
// # Loops
//
// Loops are encoded as a pair of Branch instructions carrying unsigned
// distances. A Branch(Forward, d) at index i skips the loop body when the
// current cell is zero by moving to i+d. Its partner Branch(Backward, d') sits
// at j = i+d-1 and returns to the opening branch (j-d' == i) when the cell is
// nonzero. Pairs nest and never partially overlap; [Program.Validate] checks
// this before a program is executed.
//
// # Immutability
//
//   - All fields are unexported
//   - The constructor copies input slices
//   - Instructions() returns a copy
//
// Example:
//
//	program, err := compiler.Compile(source)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Instructions: %d\n", program.Len())
//	fmt.Println(program)
package bytecode
