// Package vm provides a VirtualMachine that interprets Ribbon bytecode.
//
// The tape is created by the program's leading AllocateTape instruction, so
// an empty program runs without allocating one.
package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/errz"
	"github.com/ribbon-lang/ribbon/op"
	"github.com/ribbon-lang/ribbon/tape"
)

const (
	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000

	// DebugRadius is the number of cells logged on each side of the cursor
	// by the Debug opcode.
	DebugRadius = 8
)

// ErrHalted is returned when an observer stops execution.
var ErrHalted = errors.New("execution halted by observer")

// VirtualMachine executes a bytecode.Program one instruction at a time.
type VirtualMachine struct {
	ip       int // instruction pointer
	cursor   int
	steps    int64
	tape     *tape.Tape
	program  *bytecode.Program
	input    io.Reader
	output   *bufio.Writer
	logger   zerolog.Logger
	running  bool
	runMutex sync.Mutex
	readBuf  [1]byte

	// contextCheckInterval is the number of instructions between checks of
	// ctx.Done(). A value of 0 disables checking.
	contextCheckInterval int

	// observer receives a callback per step. If nil, no callbacks are made.
	observer Observer
	stepMode StepMode
	sample   int
	lastLine int
}

// New creates a new Virtual Machine. Input defaults to os.Stdin and output
// to os.Stdout.
func New(options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		input:                os.Stdin,
		output:               bufio.NewWriter(os.Stdout),
		logger:               zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.observer != nil {
		cfg := NormalizeConfig(vm.observer.Config())
		vm.stepMode = cfg.StepMode
		vm.sample = cfg.SampleInterval
	}
	return vm
}

// Run the given program on a new Virtual Machine.
func Run(ctx context.Context, program *bytecode.Program, options ...Option) error {
	return New(options...).Run(ctx, program)
}

func (vm *VirtualMachine) start(program *bytecode.Program) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.program = program
	vm.ip = 0
	vm.cursor = 0
	vm.steps = 0
	vm.tape = nil
	vm.lastLine = 0
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run validates and executes the program. Buffered output is flushed on
// every exit path. The VM may be reused for further runs once Run returns.
func (vm *VirtualMachine) Run(ctx context.Context, program *bytecode.Program) (err error) {
	if program == nil {
		return fmt.Errorf("no program to run")
	}
	if err := program.Validate(); err != nil {
		return err
	}
	if err := vm.start(program); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if flushErr := vm.output.Flush(); flushErr != nil && err == nil {
			err = vm.ioError(flushErr, "flushing output")
		}
		vm.logger.Debug().
			Str("backend", "vm").
			Int64("steps", vm.steps).
			Int("cursor", vm.cursor).
			Bool("ok", err == nil).
			Msg("run finished")
		vm.stop()
	}()
	return vm.eval(ctx)
}

// eval runs the loaded program until it falls off the end or fails.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()
	if doneChan != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	program := vm.program
	for vm.ip < program.Len() {

		// Deterministic check of ctx.Done() every N instructions.
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					return ctx.Err()
				default:
				}
			}
		}

		instr := program.At(vm.ip)
		if vm.observer != nil && !vm.notify(instr) {
			return ErrHalted
		}
		vm.steps++

		if vm.tape == nil && op.TouchesTape(instr.Code) {
			return vm.fail(errz.ErrTape, "%s before the tape was allocated",
				op.GetInfo(instr.Code).Name)
		}

		next := vm.ip + 1
		switch instr.Code {
		case op.AllocateTape:
			t, err := tape.New(instr.Operand)
			if err != nil {
				return vm.fail(errz.ErrInternal, "%v", err)
			}
			vm.tape = t
			vm.cursor = 0
		case op.AdvanceCursor:
			cursor, err := vm.tape.Advance(vm.cursor, 1)
			if err != nil {
				return vm.locate(err)
			}
			vm.cursor = cursor
		case op.RetreatCursor:
			vm.cursor = vm.tape.Retreat(vm.cursor, 1)
		case op.IncrementCell:
			if err := vm.tape.Increment(vm.cursor, 1); err != nil {
				return vm.locate(err)
			}
		case op.DecrementCell:
			if err := vm.tape.Decrement(vm.cursor, 1); err != nil {
				return vm.locate(err)
			}
		case op.WriteChar:
			if err := vm.output.WriteByte(vm.tape.Cell(vm.cursor)); err != nil {
				return vm.ioError(err, "writing output")
			}
		case op.ReadChar:
			if err := vm.readChar(); err != nil {
				return err
			}
		case op.Branch:
			cell := vm.tape.Cell(vm.cursor)
			switch instr.Direction {
			case op.Forward:
				if cell == 0 {
					next = vm.ip + instr.Operand
				}
			case op.Backward:
				if cell != 0 {
					next = vm.ip - instr.Operand
				}
			}
		case op.Debug:
			vm.debug()
		default:
			return vm.fail(errz.ErrInternal, "unknown opcode %d", instr.Code)
		}
		vm.ip = next
	}
	return nil
}

// readChar flushes pending output, then blocks for one byte of input.
func (vm *VirtualMachine) readChar() error {
	if err := vm.output.Flush(); err != nil {
		return vm.ioError(err, "flushing output")
	}
	if _, err := io.ReadFull(vm.input, vm.readBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return vm.fail(errz.ErrIO, "end of input")
		}
		return vm.ioError(err, "reading input")
	}
	vm.tape.Set(vm.cursor, vm.readBuf[0])
	return nil
}

func (vm *VirtualMachine) debug() {
	start, cells := vm.tape.Window(vm.cursor, DebugRadius)
	vm.logger.Debug().
		Int("ip", vm.ip).
		Int("line", vm.program.LineAt(vm.ip)).
		Int("cursor", vm.cursor).
		Int("window_start", start).
		Hex("cells", cells).
		Msg("tape")
}

func (vm *VirtualMachine) notify(instr bytecode.Instruction) bool {
	line := vm.program.LineAt(vm.ip)
	switch vm.stepMode {
	case StepNone:
		return true
	case StepSampled:
		if vm.steps%int64(vm.sample) != 0 {
			return true
		}
	case StepOnLine:
		if line == vm.lastLine {
			return true
		}
		vm.lastLine = line
	}
	event := StepEvent{
		IP:         vm.ip,
		Opcode:     instr.Code,
		OpcodeName: op.GetInfo(instr.Code).Name,
		Operand:    instr.Operand,
		Line:       line,
		Cursor:     vm.cursor,
	}
	if vm.tape != nil {
		event.Cell = vm.tape.Cell(vm.cursor)
	}
	return vm.observer.OnStep(event)
}

// GetIP returns the current instruction pointer.
func (vm *VirtualMachine) GetIP() int {
	return vm.ip
}

// Cursor returns the current cursor position.
func (vm *VirtualMachine) Cursor() int {
	return vm.cursor
}

// Steps returns the number of instructions executed by the last run.
func (vm *VirtualMachine) Steps() int64 {
	return vm.steps
}

// Tape returns the tape of the last run, or nil if none was allocated.
func (vm *VirtualMachine) Tape() *tape.Tape {
	return vm.tape
}

func (vm *VirtualMachine) fail(kind errz.ErrorKind, format string, args ...any) *errz.RuntimeError {
	return errz.NewRuntimeError(kind, format, args...).
		At(vm.ip, vm.program.LineAt(vm.ip), vm.cursor)
}

func (vm *VirtualMachine) ioError(cause error, action string) *errz.RuntimeError {
	return vm.fail(errz.ErrIO, "%s: %v", action, cause).WithCause(cause)
}

// locate attaches the current position to errors raised by the tape.
func (vm *VirtualMachine) locate(err error) error {
	var runtimeErr *errz.RuntimeError
	if errors.As(err, &runtimeErr) {
		return runtimeErr.At(vm.ip, vm.program.LineAt(vm.ip), vm.cursor)
	}
	return err
}
