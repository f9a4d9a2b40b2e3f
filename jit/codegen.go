package jit

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/op"
)

const (
	// maxCellChunk is the largest count one add/sub byte instruction carries.
	maxCellChunk = 255

	// maxCursorChunk is the largest count one add/sub rdx instruction carries.
	maxCursorChunk = 1 << 30
)

// Site describes a generated check that can end a run with an error.
type Site struct {
	IP   int     // index of the first instruction of the folded run
	Code op.Code // opcode being checked
}

// Code is the output of the code generator: position independent machine
// code plus the metadata the host needs to run it and attribute errors.
type Code struct {
	// Bytes holds the machine code. Offset 0 is the entry stub.
	Bytes []byte

	// BodyOffset is where the translated program begins.
	BodyOffset int

	// Sites lists the overflow, bounds and I/O checks. Generated code stores
	// the index of the failing check in the frame before exiting.
	Sites []Site

	// CallSites maps the offset following each trampoline call to the
	// instruction index that made it.
	CallSites map[int]int

	// Labels is the number of labels used.
	Labels int

	// Folded is the number of bytecode instructions merged into a preceding
	// instruction by run-length folding.
	Folded int
}

type loopLabels struct {
	backward Label // loop body start
	forward  Label // after the closing branch
}

type coldStub struct {
	label  Label
	site   int
	target Label
}

type codegen struct {
	asm     *Assembler
	program *bytecode.Program
	logger  zerolog.Logger
	code    *Code
	loops   []loopLabels
	stubs   []coldStub

	overflow  Label
	ioFailure Label
	bounds    Label
	write     Label
	read      Label
}

// Generate translates a program into x86-64 machine code. The program must
// already be valid; unmatched loop branches are reported as errors.
func Generate(program *bytecode.Program, logger zerolog.Logger) (*Code, error) {
	asm := &Assembler{}
	g := &codegen{
		asm:     asm,
		program: program,
		logger:  logger,
		code:    &Code{CallSites: map[int]int{}},
	}
	g.overflow = asm.ReserveLabel()
	g.ioFailure = asm.ReserveLabel()
	g.bounds = asm.ReserveLabel()
	g.write = asm.ReserveLabel()
	g.read = asm.ReserveLabel()

	asm.entry()
	g.code.BodyOffset = asm.Len()

	if err := g.body(); err != nil {
		return nil, err
	}
	g.epilogue(statusOK)
	for _, stub := range g.stubs {
		asm.MarkLabel(stub.label)
		asm.storeSite(uint32(stub.site))
		asm.jmp(stub.target)
	}
	asm.MarkLabel(g.overflow)
	g.epilogue(statusOverflow)
	asm.MarkLabel(g.ioFailure)
	g.epilogue(statusIO)
	asm.MarkLabel(g.bounds)
	g.epilogue(statusBounds)
	asm.MarkLabel(g.write)
	g.trampoline(statusWrite)
	asm.MarkLabel(g.read)
	g.trampoline(statusRead)

	if err := asm.Resolve(); err != nil {
		return nil, err
	}
	g.code.Bytes = asm.Bytes()
	g.code.Labels = asm.LabelCount()
	return g.code, nil
}

func (g *codegen) body() error {
	n := g.program.Len()
	for ip := 0; ip < n; {
		instr := g.program.At(ip)
		if op.Foldable(instr.Code) {
			end := ip + 1
			for end < n && g.program.At(end).Code == instr.Code {
				end++
			}
			g.code.Folded += end - ip - 1
			g.folded(ip, instr.Code, end-ip)
			ip = end
			continue
		}
		switch instr.Code {
		case op.AllocateTape:
			// The host allocates the tape before entering.
		case op.WriteChar:
			g.hostCall(ip, g.write)
		case op.ReadChar:
			g.hostCall(ip, g.read)
		case op.Branch:
			if err := g.branch(ip, instr.Direction); err != nil {
				return err
			}
		case op.Debug:
			g.logger.Debug().
				Int("ip", ip).
				Int("line", g.program.LineAt(ip)).
				Msg("debug statement is ignored by native code")
		default:
			return fmt.Errorf("jit: unsupported opcode %s at %d", instr, ip)
		}
		ip++
	}
	if len(g.loops) > 0 {
		return fmt.Errorf("jit: open without matching close (%d unclosed)", len(g.loops))
	}
	return nil
}

// folded emits count repetitions of a cursor or cell opcode.
func (g *codegen) folded(ip int, code op.Code, count int) {
	asm := g.asm
	switch code {
	case op.AdvanceCursor:
		for count > 0 {
			chunk := min(count, maxCursorChunk)
			asm.addRDX(chunk)
			asm.cmpRDXR9()
			g.check(condAE, g.bounds, ip, code)
			count -= chunk
		}
	case op.RetreatCursor:
		for count > 0 {
			chunk := min(count, maxCursorChunk)
			asm.subRDX(chunk)
			asm.cmpRDXR8()
			asm.jaeShort(3)
			asm.movRDXR8()
			count -= chunk
		}
	case op.IncrementCell:
		for count > 0 {
			chunk := min(count, maxCellChunk)
			asm.addCell(byte(chunk))
			g.check(condB, g.overflow, ip, code)
			count -= chunk
		}
	case op.DecrementCell:
		for count > 0 {
			chunk := min(count, maxCellChunk)
			asm.subCell(byte(chunk))
			g.check(condB, g.overflow, ip, code)
			count -= chunk
		}
	}
}

// check emits a conditional jump to a cold stub that records the site and
// continues to target.
func (g *codegen) check(cond byte, target Label, ip int, code op.Code) {
	stub := g.asm.ReserveLabel()
	g.asm.jcc(cond, stub)
	g.stubs = append(g.stubs, coldStub{label: stub, site: len(g.code.Sites), target: target})
	g.code.Sites = append(g.code.Sites, Site{IP: ip, Code: code})
}

func (g *codegen) hostCall(ip int, trampoline Label) {
	g.asm.call(trampoline)
	g.code.CallSites[g.asm.Len()] = ip
	g.asm.testAL()
	g.check(condNE, g.ioFailure, ip, g.program.At(ip).Code)
}

func (g *codegen) branch(ip int, dir op.Direction) error {
	asm := g.asm
	switch dir {
	case op.Forward:
		pair := loopLabels{backward: asm.ReserveLabel(), forward: asm.ReserveLabel()}
		g.loops = append(g.loops, pair)
		asm.cmpCellZero()
		asm.jcc(condE, pair.forward)
		asm.MarkLabel(pair.backward)
	case op.Backward:
		if len(g.loops) == 0 {
			return fmt.Errorf("jit: close without matching open at %d", ip)
		}
		pair := g.loops[len(g.loops)-1]
		g.loops = g.loops[:len(g.loops)-1]
		asm.cmpCellZero()
		asm.jcc(condNE, pair.backward)
		asm.MarkLabel(pair.forward)
	default:
		return fmt.Errorf("jit: branch at %d has no direction", ip)
	}
	return nil
}

// epilogue stores the cursor and returns status to the host.
func (g *codegen) epilogue(status uint32) {
	g.asm.storeCursor()
	g.asm.movEAX(status)
	g.asm.ret()
}

// trampoline exits to the host for I/O. The return address of the call that
// entered it becomes the resume address.
func (g *codegen) trampoline(status uint32) {
	g.asm.storeResume()
	g.asm.storeCursor()
	g.asm.movEAX(status)
	g.asm.ret()
}
