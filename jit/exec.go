package jit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/errz"
	"github.com/ribbon-lang/ribbon/tape"
)

var (
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("jit: executable is closed")

	// ErrUnsupported is returned by Compile on platforms without native
	// execution support.
	ErrUnsupported = errors.New("jit: native execution is not supported on " +
		runtime.GOOS + "/" + runtime.GOARCH)
)

// Option configures compilation and runs.
type Option func(*config)

type config struct {
	logger zerolog.Logger
	input  io.Reader
	output io.Writer
}

// WithLogger sets the logger for compile and run diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithInput sets the reader used by ReadChar.
func WithInput(r io.Reader) Option {
	return func(c *config) {
		c.input = r
	}
}

// WithOutput sets the writer used by WriteChar.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

func newConfig(base config, opts []Option) config {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// Executable owns a sealed region of executable memory holding a compiled
// program. It may be run concurrently; each run has its own tape and frame.
type Executable struct {
	mu      sync.RWMutex
	closed  bool
	mem     []byte
	code    *Code
	program *bytecode.Program
	config  config
}

// Supported reports whether native execution is available on this platform.
func Supported() bool {
	return nativeSupported
}

// Compile validates the program, generates machine code and maps it into
// executable memory. The caller owns the result and must Close it.
func Compile(program *bytecode.Program, opts ...Option) (*Executable, error) {
	if program == nil {
		return nil, fmt.Errorf("jit: no program to compile")
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	cfg := newConfig(config{
		logger: zerolog.Nop(),
		input:  os.Stdin,
		output: os.Stdout,
	}, opts)
	if !nativeSupported {
		return nil, ErrUnsupported
	}
	code, err := Generate(program, cfg.logger)
	if err != nil {
		return nil, err
	}
	mem, err := mapCode(code.Bytes)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug().
		Int("bytes", len(code.Bytes)).
		Int("labels", code.Labels).
		Int("sites", len(code.Sites)).
		Int("folded", code.Folded).
		Int("trampoline_version", TrampolineVersion).
		Msg("compiled native code")
	return &Executable{
		mem:     mem,
		code:    code,
		program: program,
		config:  cfg,
	}, nil
}

// Code returns a copy of the machine code.
func (e *Executable) Code() []byte {
	out := make([]byte, len(e.code.Bytes))
	copy(out, e.code.Bytes)
	return out
}

// Disassemble returns an Intel syntax listing of the machine code.
func (e *Executable) Disassemble() []Line {
	return Disassemble(e.code.Bytes)
}

// Close releases the executable memory. It waits for in-flight runs and
// is safe to call more than once.
func (e *Executable) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	mem := e.mem
	e.mem = nil
	return unmapCode(mem)
}

// Run executes the compiled program on a fresh tape. Output is flushed on
// every exit path and before each read.
//
// ctx is observed only when generated code exits to the host for I/O, so a
// loop that performs no I/O runs until it finishes. Such a loop is also not
// preemptible: while it runs, a garbage collection stop-the-world in the
// process waits for it, stalling every other goroutine, concurrent runs of
// the same Executable included. Bound untrusted programs with I/O or run
// them in a separate process.
func (e *Executable) Run(ctx context.Context, opts ...Option) (err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	cfg := newConfig(e.config, opts)
	if err := ctx.Err(); err != nil {
		return err
	}

	cells, err := e.newTape()
	if err != nil {
		return err
	}
	var base uintptr
	if len(cells) > 0 {
		base = uintptr(unsafe.Pointer(&cells[0]))
	}
	code := uintptr(unsafe.Pointer(&e.mem[0]))
	f := &frame{
		cursor: base,
		begin:  base,
		end:    base + uintptr(len(cells)),
		resume: code + uintptr(e.code.BodyOffset),
	}
	h := &host{
		exe:    e,
		frame:  f,
		cells:  cells,
		input:  cfg.input,
		output: bufio.NewWriter(cfg.output),
		code:   code,
	}
	defer func() {
		if flushErr := h.output.Flush(); flushErr != nil && err == nil {
			err = errz.NewRuntimeError(errz.ErrIO, "flushing output: %v", flushErr).WithCause(flushErr)
		}
		cfg.logger.Debug().
			Str("backend", "jit").
			Int("exits", h.exits).
			Int("cursor", h.cursor()).
			Bool("ok", err == nil).
			Msg("run finished")
	}()
	err = h.loop(ctx, code)
	runtime.KeepAlive(cells)
	return err
}

// newTape allocates the cells for one run. A program with no instructions
// never touches the tape, so none is allocated, matching the interpreter.
func (e *Executable) newTape() ([]byte, error) {
	if e.program.Len() == 0 {
		return nil, nil
	}
	t, err := tape.New(e.program.TapeSize())
	if err != nil {
		return nil, errz.NewRuntimeError(errz.ErrInternal, "%v", err)
	}
	return t.Bytes(), nil
}

// host services exits from generated code for one run.
type host struct {
	exe     *Executable
	frame   *frame
	cells   []byte
	input   io.Reader
	output  *bufio.Writer
	code    uintptr
	exits   int
	ioErr   *errz.RuntimeError
	readBuf [1]byte
}

func (h *host) cursor() int {
	return int(h.frame.cursor - h.frame.begin)
}

func (h *host) loop(ctx context.Context, entry uintptr) error {
	for {
		status := callNative(entry, h.frame)
		h.exits++
		switch status {
		case statusOK:
			return nil
		case statusOverflow:
			return h.siteError(errz.ErrOverflow, "cell %d overflowed", h.cursor())
		case statusBounds:
			return h.siteError(errz.ErrBounds, "cursor moved to %d on a tape of %d cells",
				h.cursor(), len(h.cells))
		case statusIO:
			if h.ioErr != nil {
				return h.ioErr
			}
			return h.siteError(errz.ErrIO, "i/o failure")
		case statusWrite, statusRead:
			if err := ctx.Err(); err != nil {
				return err
			}
			h.frame.result = 0
			if err := h.transfer(status == statusWrite); err != nil {
				h.ioErr = err
				h.frame.result = 1
			}
		default:
			return errz.NewRuntimeError(errz.ErrInternal, "unexpected native status %d", status)
		}
	}
}

// transfer performs one byte of I/O for the call site that exited.
func (h *host) transfer(write bool) *errz.RuntimeError {
	ip := -1
	if site, ok := h.exe.code.CallSites[int(h.frame.resume-h.code)]; ok {
		ip = site
	}
	fail := func(format string, args ...any) *errz.RuntimeError {
		return errz.NewRuntimeError(errz.ErrIO, format, args...).
			At(ip, h.exe.program.LineAt(ip), h.cursor())
	}
	cursor := h.cursor()
	if write {
		if err := h.output.WriteByte(h.cells[cursor]); err != nil {
			return fail("writing output: %v", err).WithCause(err)
		}
		return nil
	}
	if err := h.output.Flush(); err != nil {
		return fail("flushing output: %v", err).WithCause(err)
	}
	if _, err := io.ReadFull(h.input, h.readBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return fail("end of input")
		}
		return fail("reading input: %v", err).WithCause(err)
	}
	h.cells[cursor] = h.readBuf[0]
	return nil
}

func (h *host) siteError(kind errz.ErrorKind, format string, args ...any) *errz.RuntimeError {
	err := errz.NewRuntimeError(kind, format, args...)
	site := int(h.frame.site)
	if site < 0 || site >= len(h.exe.code.Sites) {
		return err
	}
	s := h.exe.code.Sites[site]
	cursor := h.cursor()
	if kind == errz.ErrBounds {
		cursor = -1
	}
	return err.At(s.IP, h.exe.program.LineAt(s.IP), cursor)
}
