// Package jit compiles Ribbon bytecode to x86-64 machine code and runs it.
//
// Generated code keeps the cursor in rdx and the tape bounds in r8 and r9,
// and receives a pointer to a small host frame in rdi. It never calls into
// the Go runtime. Output and input are performed by the host: a native
// trampoline saves the resume address and cursor into the frame and returns
// to Go with a status code, the host transfers the byte, and re-enters
// through an entry stub that reloads the registers and jumps back.
//
// Status codes returned by generated code:
//
//	0  success
//	1  cell overflow
//	2  I/O failure
//	3  cursor out of bounds
//	4  write request (trampoline)
//	5  read request (trampoline)
//
// A run checks its context only at these host exits. Generated code cannot be
// preempted by the Go scheduler, so a compute loop without I/O holds its
// thread until it ends and delays any stop-the-world pause of the garbage
// collector for the whole process.
//
// An empty program allocates no tape, as in the interpreter; any other valid
// program starts with AllocateTape and gets exactly that many cells.
//
// Executable memory is mapped read-write, filled, then sealed read-execute.
// Native execution requires amd64 on a unix system; elsewhere Compile
// returns ErrUnsupported while Generate and Disassemble remain available.
package jit
