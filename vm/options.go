package vm

import (
	"bufio"
	"io"

	"github.com/rs/zerolog"
)

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithInput sets the reader ReadChar consumes bytes from.
func WithInput(r io.Reader) Option {
	return func(vm *VirtualMachine) {
		vm.input = r
	}
}

// WithOutput sets the writer WriteChar writes to. Output is buffered and
// flushed before every read and when a run ends.
func WithOutput(w io.Writer) Option {
	return func(vm *VirtualMachine) {
		vm.output = bufio.NewWriter(w)
	}
}

// WithLogger sets the logger used for Debug dumps and run summaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) {
		vm.logger = logger
	}
}

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution. The interval is specified in number of instructions. A value of 0
// disables checking. The default is DefaultContextCheckInterval (1000).
//
// Lower values provide more responsive cancellation but may slightly impact
// performance due to more frequent checks.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for VM execution events.
//
// Observer methods are called synchronously during execution, so
// implementations should be fast to avoid impacting performance.
// Returning false from OnStep halts execution immediately.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}
