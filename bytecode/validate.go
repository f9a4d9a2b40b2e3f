package bytecode

import (
	"github.com/hashicorp/go-multierror"
	"github.com/ribbon-lang/ribbon/errz"
	"github.com/ribbon-lang/ribbon/op"
)

// Validate checks the structural invariants both backends rely on:
//
//   - every opcode is known
//   - AllocateTape appears at most once, only at index 0, with a positive size
//   - forward and backward branches pair up and nest
//   - no instruction touches the tape unless the program allocates one
//
// All problems found are returned together.
func (p *Program) Validate() error {
	var result *multierror.Error
	fail := func(kind errz.ErrorKind, ip int, format string, args ...any) {
		err := errz.NewRuntimeError(kind, format, args...).At(ip, p.LineAt(ip), -1)
		result = multierror.Append(result, err)
	}

	allocated := len(p.instructions) > 0 && p.instructions[0].Code == op.AllocateTape
	reportedTape := false
	var open []int

	for ip, instr := range p.instructions {
		if !op.IsKnown(instr.Code) {
			fail(errz.ErrInternal, ip, "unknown opcode %d at %d", instr.Code, ip)
			continue
		}
		if !allocated && !reportedTape && op.TouchesTape(instr.Code) {
			fail(errz.ErrTape, ip, "%s at %d uses the tape before it is allocated",
				op.GetInfo(instr.Code).Name, ip)
			reportedTape = true
		}
		switch instr.Code {
		case op.AllocateTape:
			if ip != 0 {
				fail(errz.ErrInternal, ip, "tape allocated at %d; only index 0 may allocate", ip)
			}
			if instr.Operand <= 0 {
				fail(errz.ErrInternal, ip, "invalid tape size %d", instr.Operand)
			}
		case op.Branch:
			switch instr.Direction {
			case op.Forward:
				open = append(open, ip)
				j := ip + instr.Operand - 1
				if j <= ip || j >= len(p.instructions) || !p.instructions[j].IsBranch(op.Backward) {
					fail(errz.ErrInternal, ip, "forward branch at %d has no backward partner at %d", ip, j)
				}
			case op.Backward:
				if len(open) == 0 {
					fail(errz.ErrInternal, ip, "backward branch at %d closes no loop", ip)
					continue
				}
				start := open[len(open)-1]
				open = open[:len(open)-1]
				if ip-instr.Operand != start {
					fail(errz.ErrInternal, ip, "backward branch at %d targets %d, expected %d",
						ip, ip-instr.Operand, start)
				}
			default:
				fail(errz.ErrInternal, ip, "branch at %d has no direction", ip)
			}
		}
	}
	for _, ip := range open {
		fail(errz.ErrInternal, ip, "forward branch at %d is never closed", ip)
	}
	return result.ErrorOrNil()
}
