package compiler

import (
	"fmt"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/op"
)

// Code is the mutable instruction buffer a Compiler writes into. It is
// converted to an immutable bytecode.Program once compilation succeeds.
type Code struct {
	instructions []bytecode.Instruction
	lines        []int
	filename     string
	source       string
}

// InstructionCount returns the number of instructions emitted so far.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// Instruction returns the instruction at the given index.
func (c *Code) Instruction(index int) bytecode.Instruction {
	return c.instructions[index]
}

func (c *Code) emit(instr bytecode.Instruction, line int) int {
	pos := len(c.instructions)
	c.instructions = append(c.instructions, instr)
	c.lines = append(c.lines, line)
	return pos
}

// patchBranch sets the distance of the branch at index. Patching anything
// else is a compiler bug.
func (c *Code) patchBranch(index, distance int) {
	instr := c.instructions[index]
	if instr.Code != op.Branch {
		panic(fmt.Sprintf("compiler: patch of non-branch %s at %d", instr, index))
	}
	if instr.Operand != Placeholder {
		panic(fmt.Sprintf("compiler: branch at %d patched twice", index))
	}
	instr.Operand = distance
	c.instructions[index] = instr
}

// ToBytecode converts the code to an immutable Program.
func (c *Code) ToBytecode() *bytecode.Program {
	return bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: c.instructions,
		Lines:        c.lines,
		Filename:     c.filename,
		Source:       c.source,
	})
}
