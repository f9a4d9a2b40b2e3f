package bytecode

import (
	"fmt"
	"strings"

	"github.com/ribbon-lang/ribbon/op"
	"github.com/ribbon-lang/ribbon/tape"
)

// Program is an ordered, immutable sequence of instructions.
type Program struct {
	instructions []Instruction
	lines        []int
	filename     string
	source       string
}

// ProgramParams contains parameters for creating a new Program.
type ProgramParams struct {
	Instructions []Instruction
	// Lines holds the 1-based source line of the statement that emitted each
	// instruction. It may be shorter than Instructions or nil.
	Lines    []int
	Filename string
	Source   string
}

// NewProgram creates a new immutable Program. Input slices are copied.
func NewProgram(params ProgramParams) *Program {
	return &Program{
		instructions: copyInstructions(params.Instructions),
		lines:        copyInts(params.Lines),
		filename:     params.Filename,
		source:       params.Source,
	}
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.instructions)
}

// At returns the instruction at the given index.
func (p *Program) At(index int) Instruction {
	return p.instructions[index]
}

// Instructions returns a copy of all instructions.
func (p *Program) Instructions() []Instruction {
	return copyInstructions(p.instructions)
}

// LineAt returns the source line for the instruction at the given index, or
// 0 when it is unknown.
func (p *Program) LineAt(index int) int {
	if index < 0 || index >= len(p.lines) {
		return 0
	}
	return p.lines[index]
}

// Filename returns the source filename.
func (p *Program) Filename() string {
	return p.filename
}

// Source returns the source text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// GetSourceLine returns the source code line at the given 1-based line number.
func (p *Program) GetSourceLine(lineNum int) string {
	if lineNum < 1 || p.source == "" {
		return ""
	}
	lines := strings.Split(p.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// TapeSize returns the operand of the leading AllocateTape instruction, or
// tape.DefaultSize when the program does not allocate one.
func (p *Program) TapeSize() int {
	if len(p.instructions) > 0 && p.instructions[0].Code == op.AllocateTape {
		return p.instructions[0].Operand
	}
	return tape.DefaultSize
}

// Equal reports whether both programs hold the same instructions. Source
// metadata is not compared.
func (p *Program) Equal(other *Program) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.instructions) != len(other.instructions) {
		return false
	}
	for i, instr := range p.instructions {
		if instr != other.instructions[i] {
			return false
		}
	}
	return true
}

// String returns one numbered instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	for i, instr := range p.instructions {
		fmt.Fprintf(&b, "%04d %s\n", i, instr)
	}
	return b.String()
}

// Stats returns statistics about the program.
func (p *Program) Stats() Stats {
	stats := Stats{
		InstructionCount: len(p.instructions),
		TapeSize:         p.TapeSize(),
		SourceBytes:      len(p.source),
	}
	depth := 0
	for _, instr := range p.instructions {
		switch {
		case instr.IsBranch(op.Forward):
			stats.LoopCount++
			depth++
			if depth > stats.MaxLoopDepth {
				stats.MaxLoopDepth = depth
			}
		case instr.IsBranch(op.Backward):
			depth--
		case instr.Code == op.WriteChar || instr.Code == op.ReadChar:
			stats.IOCount++
		}
	}
	return stats
}

func copyInstructions(src []Instruction) []Instruction {
	if src == nil {
		return nil
	}
	dst := make([]Instruction, len(src))
	copy(dst, src)
	return dst
}

func copyInts(src []int) []int {
	if src == nil {
		return nil
	}
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}
