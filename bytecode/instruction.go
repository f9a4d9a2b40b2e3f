package bytecode

import (
	"fmt"

	"github.com/ribbon-lang/ribbon/op"
)

// Instruction is a single bytecode operation. Operand holds the tape size for
// AllocateTape and the unsigned jump distance for Branch. It is zero for every
// other opcode.
type Instruction struct {
	Code      op.Code
	Operand   int
	Direction op.Direction
}

// AllocateTape returns an instruction that allocates a tape of size cells.
func AllocateTape(size int) Instruction {
	return Instruction{Code: op.AllocateTape, Operand: size}
}

// Op returns an operand-less instruction.
func Op(code op.Code) Instruction {
	return Instruction{Code: code}
}

// Branch returns a conditional relative jump.
func Branch(distance int, dir op.Direction) Instruction {
	return Instruction{Code: op.Branch, Operand: distance, Direction: dir}
}

// IsBranch returns true if the instruction is a Branch in the given direction.
func (i Instruction) IsBranch(dir op.Direction) bool {
	return i.Code == op.Branch && i.Direction == dir
}

// String returns a compact text form such as "BRANCH forward 4".
func (i Instruction) String() string {
	info := op.GetInfo(i.Code)
	name := info.Name
	if name == "" {
		name = fmt.Sprintf("UNKNOWN(%d)", i.Code)
	}
	switch i.Code {
	case op.AllocateTape:
		return fmt.Sprintf("%s %d", name, i.Operand)
	case op.Branch:
		return fmt.Sprintf("%s %s %d", name, i.Direction, i.Operand)
	default:
		return name
	}
}
