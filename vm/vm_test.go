package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/compiler"
	"github.com/ribbon-lang/ribbon/errz"
	"github.com/ribbon-lang/ribbon/op"
)

func compile(t *testing.T, source string) *bytecode.Program {
	t.Helper()
	program, err := compiler.Compile(source, nil)
	require.Nil(t, err)
	return program
}

// run executes source with the given input and returns the output.
func run(t *testing.T, source, input string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithInput(strings.NewReader(input)), WithOutput(&out)}, opts...)
	err := Run(context.Background(), compile(t, source), opts...)
	return out.String(), err
}

func TestEmptyProgram(t *testing.T) {
	out, err := run(t, "", "")
	require.Nil(t, err)
	require.Equal(t, "", out)

	machine := New(WithOutput(&bytes.Buffer{}))
	require.Nil(t, machine.Run(context.Background(), compile(t, "")))
	require.Nil(t, machine.Tape())
}

func TestPrintA(t *testing.T) {
	out, err := run(t, "incr tape[idx] +64\nputch", "")
	require.Nil(t, err)
	require.Equal(t, "A", out)
}

func TestLoopMarkers(t *testing.T) {
	source := `make tape[2]
make p: idx
incr tape[p] +2
incr p
incr tape[p] +41
decr p
loop (
  incr p
  putch
  decr p
  decr tape[p]
)`
	out, err := run(t, source, "")
	require.Nil(t, err)
	require.Equal(t, "***", out)
}

func TestSkippedLoop(t *testing.T) {
	out, err := run(t, "loop ( putch ) incr tape[idx] +32 putch", "")
	require.Nil(t, err)
	require.Equal(t, "!", out)
}

func TestNestedLoops(t *testing.T) {
	// 3 outer iterations, each printing 2 inner markers: 6 markers total.
	source := `make tape[4]
incr tape[idx] +2
loop (
  incr idx
  incr tape[idx] +1
  loop (
    incr idx
    incr tape[idx] +45
    putch
    decr tape[idx] +45
    decr idx
    decr tape[idx]
  )
  decr idx
  decr tape[idx]
)`
	out, err := run(t, source, "")
	require.Nil(t, err)
	require.Equal(t, "......", out)
}

func TestEcho(t *testing.T) {
	out, err := run(t, "getch putch getch putch", "hi")
	require.Nil(t, err)
	require.Equal(t, "hi", out)
}

func TestCellOverflow(t *testing.T) {
	vm := New(WithOutput(&bytes.Buffer{}))
	err := vm.Run(context.Background(), compile(t, "incr tape[idx] +255\nputch"))
	require.ErrorIs(t, err, errz.ErrCellOverflow)
	require.Equal(t, 4, errz.ExitCode(err))

	var runtimeErr *errz.RuntimeError
	require.True(t, errors.As(err, &runtimeErr))
	require.Equal(t, 256, runtimeErr.IP)
	require.Equal(t, 1, runtimeErr.Line)
	require.Equal(t, byte(255), vm.Tape().Cell(0))
}

func TestCellUnderflow(t *testing.T) {
	out, err := run(t, "decr tape[idx] putch", "")
	require.ErrorIs(t, err, errz.ErrCellOverflow)
	require.Equal(t, "", out)
}

func TestCursorBounds(t *testing.T) {
	out, err := run(t, "make tape[3]\nincr idx +1\nputch\nincr idx\nputch", "")
	require.ErrorIs(t, err, errz.ErrCursorOutOfBounds)
	require.Equal(t, 3, errz.ExitCode(err))
	require.Equal(t, "\x00", out, "output before the failure is flushed")

	var runtimeErr *errz.RuntimeError
	require.True(t, errors.As(err, &runtimeErr))
	require.Equal(t, 4, runtimeErr.Line)
	require.Equal(t, 2, runtimeErr.Cursor)
}

func TestCursorRetreatSaturates(t *testing.T) {
	vm := New(WithOutput(&bytes.Buffer{}))
	err := vm.Run(context.Background(), compile(t, "decr idx +5\nincr idx"))
	require.Nil(t, err)
	require.Equal(t, 1, vm.Cursor())
}

func TestReadEOF(t *testing.T) {
	out, err := run(t, "incr tape[idx] +64 putch getch putch", "")
	require.ErrorIs(t, err, errz.ErrIOFailure)
	require.Equal(t, 5, errz.ExitCode(err))
	require.Equal(t, "A", out)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteFailure(t *testing.T) {
	program := compile(t, "putch")
	err := Run(context.Background(), program, WithOutput(failingWriter{}))
	require.Error(t, err)
	require.Equal(t, errz.ErrIO, errz.KindOf(err))
	require.ErrorIs(t, err, errz.ErrIOFailure)
	require.Contains(t, err.Error(), "disk full")
}

// flushRecorder records the order of writes and reads.
type flushRecorder struct {
	events []string
}

func (r *flushRecorder) Write(p []byte) (int, error) {
	r.events = append(r.events, "write:"+string(p))
	return len(p), nil
}

func (r *flushRecorder) Read(p []byte) (int, error) {
	r.events = append(r.events, "read")
	p[0] = 'x'
	return 1, nil
}

func TestOutputFlushedBeforeRead(t *testing.T) {
	rec := &flushRecorder{}
	program := compile(t, "incr tape[idx] +62 putch getch putch")
	err := Run(context.Background(), program, WithInput(rec), WithOutput(rec))
	require.Nil(t, err)
	require.Equal(t, []string{"write:?", "read", "write:x"}, rec.events)
}

func TestUnallocatedTape(t *testing.T) {
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: []bytecode.Instruction{bytecode.Op(op.WriteChar)},
	})
	err := Run(context.Background(), program, WithOutput(&bytes.Buffer{}))
	require.ErrorIs(t, err, errz.ErrTapeNotAllocated)
	require.Equal(t, 6, errz.ExitCode(err))
}

func TestInvalidProgram(t *testing.T) {
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Instructions: []bytecode.Instruction{
			bytecode.AllocateTape(1),
			bytecode.Branch(5, op.Forward),
		},
	})
	err := Run(context.Background(), program)
	require.Error(t, err)
	require.Equal(t, 1, errz.ExitCode(err))
	require.Error(t, Run(context.Background(), nil))
}

func TestContextCancellation(t *testing.T) {
	// incr then an endless loop.
	program := compile(t, "incr tape[idx] loop ( )")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := Run(ctx, program, WithOutput(&bytes.Buffer{}), WithContextCheckInterval(10))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, compile(t, "putch"), WithOutput(&bytes.Buffer{}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReuse(t *testing.T) {
	var out bytes.Buffer
	vm := New(WithOutput(&out))
	program := compile(t, "incr tape[idx] +64 putch")
	require.Nil(t, vm.Run(context.Background(), program))
	require.Nil(t, vm.Run(context.Background(), program))
	require.Equal(t, "AA", out.String())
	require.Equal(t, int64(67), vm.Steps())
}

func TestDebugLogsTape(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	_, err := run(t, "incr tape[idx] +2 debug", "", WithLogger(logger))
	require.Nil(t, err)
	require.Contains(t, logs.String(), `"message":"tape"`)
	require.Contains(t, logs.String(), `"cells":"030000000000000000"`)
	require.Contains(t, logs.String(), `"message":"run finished"`)
}
