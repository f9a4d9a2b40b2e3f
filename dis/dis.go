// Package dis supports analysis of Ribbon programs by disassembling their
// bytecode and, where available, the machine code the JIT produces for them.
package dis

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/internal/table"
	"github.com/ribbon-lang/ribbon/jit"
	"github.com/ribbon-lang/ribbon/op"
)

// Instruction represents a single bytecode instruction and its operand.
type Instruction struct {
	Offset     int     `json:"offset"`
	Line       int     `json:"line"`
	Name       string  `json:"name"`
	Opcode     op.Code `json:"opcode"`
	Operand    *int    `json:"operand,omitempty"`
	Direction  string  `json:"direction,omitempty"`
	Target     *int    `json:"target,omitempty"`
	Annotation string  `json:"annotation,omitempty"`
}

// Disassemble returns a parsed representation of the given program.
func Disassemble(program *bytecode.Program) ([]Instruction, error) {
	if program == nil {
		return nil, fmt.Errorf("dis: no program")
	}
	instructions := make([]Instruction, 0, program.Len())
	for ip := 0; ip < program.Len(); ip++ {
		instr := program.At(ip)
		info := op.GetInfo(instr.Code)
		if !op.IsKnown(instr.Code) {
			return nil, fmt.Errorf("dis: unknown opcode %d at offset %d", instr.Code, ip)
		}
		result := Instruction{
			Offset: ip,
			Line:   program.LineAt(ip),
			Name:   info.Name,
			Opcode: instr.Code,
		}
		if info.OperandCount > 0 {
			operand := instr.Operand
			result.Operand = &operand
		}
		switch instr.Code {
		case op.AllocateTape:
			result.Annotation = fmt.Sprintf("%d cells", instr.Operand)
		case op.Branch:
			result.Direction = instr.Direction.String()
			target := ip + instr.Operand
			verb := "skip to"
			if instr.Direction == op.Backward {
				target = ip - instr.Operand
				verb = "repeat from"
			}
			result.Target = &target
			result.Annotation = fmt.Sprintf("%s %d", verb, target)
		case op.Debug:
			result.Annotation = "tape dump"
		}
		instructions = append(instructions, result)
	}
	return instructions, nil
}

var (
	bold    = color.New(color.Bold)
	yellow  = color.New(color.FgYellow)
	cyan    = color.New(color.FgHiCyan)
	magenta = color.New(color.FgMagenta)
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	var lines [][]string
	for _, instr := range instructions {
		values := []string{
			fmt.Sprintf("%d", instr.Offset),
			fmt.Sprintf("%d", instr.Line),
			bold.Sprint(instr.Name),
		}
		switch {
		case instr.Operand == nil:
			values = append(values, "")
		case instr.Direction != "":
			values = append(values, yellow.Sprintf("%s %d", instr.Direction, *instr.Operand))
		default:
			values = append(values, yellow.Sprintf("%d", *instr.Operand))
		}
		if instr.Annotation != "" {
			values = append(values, cyan.Sprint(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}
	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "LINE", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintNative writes a listing of decoded machine code.
func PrintNative(lines []jit.Line, writer io.Writer) error {
	var rows [][]string
	for _, line := range lines {
		rows = append(rows, []string{
			fmt.Sprintf("0x%04x", line.Offset),
			line.Hex,
			magenta.Sprint(line.Text),
		})
	}
	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "BYTES", "INSTRUCTION"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}
