// Package op defines opcodes used by the Ribbon compiler and both execution
// backends.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// Tape
	AllocateTape Code = 1

	// Cursor
	AdvanceCursor Code = 10
	RetreatCursor Code = 11

	// Cells
	IncrementCell Code = 20
	DecrementCell Code = 21

	// I/O
	WriteChar Code = 30
	ReadChar  Code = 31

	// Control flow
	Branch Code = 40

	// Diagnostics
	Debug Code = 50
)

// Direction describes which way a Branch moves the program counter.
type Direction uint8

const (
	// Forward branches skip a loop body when the current cell is zero.
	Forward Direction = 1
	// Backward branches repeat a loop body when the current cell is nonzero.
	Backward Direction = 2
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{AllocateTape, "ALLOCATE_TAPE", 1},
		{AdvanceCursor, "ADVANCE_CURSOR", 0},
		{RetreatCursor, "RETREAT_CURSOR", 0},
		{IncrementCell, "INCREMENT_CELL", 0},
		{DecrementCell, "DECREMENT_CELL", 0},
		{WriteChar, "WRITE_CHAR", 0},
		{ReadChar, "READ_CHAR", 0},
		{Branch, "BRANCH", 1},
		{Debug, "DEBUG", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// IsKnown returns true if the opcode is part of the instruction set.
func IsKnown(op Code) bool {
	return op != Invalid && infos[op].Name != ""
}

// TouchesTape returns true if executing the opcode reads or writes the tape
// or the cursor.
func TouchesTape(op Code) bool {
	switch op {
	case AdvanceCursor, RetreatCursor, IncrementCell, DecrementCell,
		WriteChar, ReadChar, Branch, Debug:
		return true
	default:
		return false
	}
}

// Foldable returns true if consecutive occurrences of the opcode may be
// combined into a single counted operation.
func Foldable(op Code) bool {
	switch op {
	case AdvanceCursor, RetreatCursor, IncrementCell, DecrementCell:
		return true
	default:
		return false
	}
}
