// Package ribbon compiles and runs Ribbon programs, a small language over a
// tape of byte cells, on either a bytecode interpreter or a native x86-64
// JIT.
//
//	err := ribbon.Run(ctx, "incr tape[idx] +64 putch", ribbon.WithJIT(true))
package ribbon

import (
	"context"
	"errors"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/compiler"
	"github.com/ribbon-lang/ribbon/jit"
	"github.com/ribbon-lang/ribbon/vm"
)

// Backend names reported in logs.
const (
	BackendVM  = "vm"
	BackendJIT = "jit"
)

// Compile compiles source code into a validated, immutable program that
// either backend can execute.
func Compile(source string, opts ...Option) (*bytecode.Program, error) {
	o := collectOptions(opts...)
	program, err := compiler.Compile(source, o.compilerConfig())
	if err != nil {
		return nil, err
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	return program, nil
}

// Run compiles and executes source code.
func Run(ctx context.Context, source string, opts ...Option) error {
	o := collectOptions(opts...)
	program, err := compiler.Compile(source, o.compilerConfig())
	if err != nil {
		return err
	}
	return execute(ctx, program, o)
}

// Execute runs a compiled program on a fresh tape. Each call creates new
// runtime state, so the same program may be executed concurrently.
func Execute(ctx context.Context, program *bytecode.Program, opts ...Option) error {
	return execute(ctx, program, collectOptions(opts...))
}

// SelectBackend reports which backend the given options would run on.
func SelectBackend(opts ...Option) string {
	return collectOptions(opts...).backend()
}

func (o *options) backend() string {
	if o.useJIT && o.observer == nil && jit.Supported() {
		return BackendJIT
	}
	return BackendVM
}

func execute(ctx context.Context, program *bytecode.Program, o *options) error {
	if program == nil {
		return errors.New("ribbon: no program to execute")
	}
	if o.useJIT && o.backend() == BackendVM {
		o.logger.Debug().
			Bool("jit_supported", jit.Supported()).
			Bool("observed", o.observer != nil).
			Msg("falling back to the interpreter")
	}
	if o.backend() == BackendVM {
		return vm.Run(ctx, program, o.vmOpts()...)
	}
	exe, err := jit.Compile(program, o.jitOpts()...)
	if err != nil {
		return err
	}
	defer exe.Close()
	return exe.Run(ctx)
}
