package ribbon

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/compiler"
	"github.com/ribbon-lang/ribbon/jit"
	"github.com/ribbon-lang/ribbon/vm"
)

// Option configures a Ribbon compilation or execution.
type Option func(*options)

type options struct {
	filename        string
	useJIT          bool
	input           io.Reader
	output          io.Writer
	logger          zerolog.Logger
	defaultTapeSize int
	observer        vm.Observer
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) compilerConfig() *compiler.Config {
	return &compiler.Config{
		Filename:        o.filename,
		DefaultTapeSize: o.defaultTapeSize,
		Logger:          &o.logger,
	}
}

func (o *options) vmOpts() []vm.Option {
	opts := []vm.Option{vm.WithLogger(o.logger)}
	if o.input != nil {
		opts = append(opts, vm.WithInput(o.input))
	}
	if o.output != nil {
		opts = append(opts, vm.WithOutput(o.output))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}

func (o *options) jitOpts() []jit.Option {
	opts := []jit.Option{jit.WithLogger(o.logger)}
	if o.input != nil {
		opts = append(opts, jit.WithInput(o.input))
	}
	if o.output != nil {
		opts = append(opts, jit.WithOutput(o.output))
	}
	return opts
}

// WithFilename sets the filename reported in compile errors.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithJIT selects the native backend. Platforms without native support fall
// back to the interpreter.
func WithJIT(enabled bool) Option {
	return func(o *options) {
		o.useJIT = enabled
	}
}

// WithInput sets the reader consumed by getch. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.input = r
	}
}

// WithOutput sets the writer receiving putch output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogger sets the logger passed to the compiler and both backends.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDefaultTapeSize sets the tape size used when the source declares none.
func WithDefaultTapeSize(size int) Option {
	return func(o *options) {
		o.defaultTapeSize = size
	}
}

// WithObserver attaches an interpreter observer. Observed runs always use
// the interpreter, since native code has no per-step hook.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}
