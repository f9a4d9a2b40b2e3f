package bytecode

// Stats contains statistics about a compiled program.
// This is useful for auditing programs before execution.
type Stats struct {
	// InstructionCount is the total number of bytecode instructions.
	InstructionCount int

	// LoopCount is the number of loops (forward/backward branch pairs).
	LoopCount int

	// MaxLoopDepth is the deepest loop nesting level.
	MaxLoopDepth int

	// IOCount is the number of WriteChar and ReadChar instructions.
	IOCount int

	// TapeSize is the number of cells the program runs with.
	TapeSize int

	// SourceBytes is the size of the original source code in bytes.
	SourceBytes int
}
