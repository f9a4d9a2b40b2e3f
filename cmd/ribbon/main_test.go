package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ribbon-lang/ribbon/errz"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin string, args ...string) result {
	t.Helper()
	viper.Reset()
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	previous := color.NoColor
	t.Cleanup(func() {
		color.NoColor = previous
		viper.Reset()
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestRunCode(t *testing.T) {
	res := execute(t, "", "run", "--code", "incr tape[idx] +64 putch")
	require.Nil(t, res.err)
	require.Equal(t, "A", res.stdout)
}

func TestRootRunsFile(t *testing.T) {
	res := execute(t, "", "testdata/markers.rbn")
	require.Nil(t, res.err)
	require.Equal(t, "***", res.stdout)
}

func TestRunJIT(t *testing.T) {
	res := execute(t, "", "run", "--jit", "testdata/markers.rbn")
	require.Nil(t, res.err)
	require.Equal(t, "***", res.stdout)
}

func TestRunStdinSource(t *testing.T) {
	res := execute(t, "incr tape[idx] +47 putch", "run", "--stdin")
	require.Nil(t, res.err)
	require.Equal(t, "0", res.stdout)

	res = execute(t, "getch", "run", "--stdin")
	require.Equal(t, 5, errz.ExitCode(res.err))
}

func TestRunReadsProgramInput(t *testing.T) {
	res := execute(t, "zq", "run", "-c", "getch putch getch putch")
	require.Nil(t, res.err)
	require.Equal(t, "zq", res.stdout)
}

func TestRunErrors(t *testing.T) {
	res := execute(t, "", "run", "-c", "putch\nloop (")
	require.Error(t, res.err)
	require.Equal(t, 2, errz.ExitCode(res.err))
	require.Contains(t, errorMessage(res.err), "-->")

	res = execute(t, "", "run", "-c", "make tape[1]\nincr idx")
	require.Equal(t, 3, errz.ExitCode(res.err))
	require.Contains(t, errorMessage(res.err), "cursor moved to 1 on a tape of 1 cells")

	res = execute(t, "", "run", "-c", "decr tape[idx]")
	require.Equal(t, 4, errz.ExitCode(res.err))

	res = execute(t, "", "run", "-c", "putch", "testdata/markers.rbn")
	require.EqualError(t, res.err, "multiple input sources specified")
	require.Equal(t, 1, errz.ExitCode(res.err))

	res = execute(t, "", "run")
	require.EqualError(t, res.err, "no input provided")

	res = execute(t, "", "run", "testdata/missing.rbn")
	require.Error(t, res.err)
}

func TestTrace(t *testing.T) {
	res := execute(t, "", "run", "--trace", "-c", "putch")
	require.Nil(t, res.err)
	require.Equal(t, "\x00", res.stdout)
	require.Contains(t, res.stderr, "step")
	require.Contains(t, res.stderr, "WRITE_CHAR")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ribbon.yaml")
	require.Nil(t, os.WriteFile(path, []byte("default-tape-size: 2\n"), 0o644))

	res := execute(t, "", "--config", path, "run", "-c", "incr idx +1")
	require.Equal(t, 3, errz.ExitCode(res.err))

	res = execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "run", "-c", "putch")
	require.ErrorContains(t, res.err, "reading config")
}

func TestEnvironment(t *testing.T) {
	t.Setenv("RIBBON_DEFAULT_TAPE_SIZE", "2")
	res := execute(t, "", "run", "-c", "incr idx +1")
	require.Equal(t, 3, errz.ExitCode(res.err))
}

func TestDis(t *testing.T) {
	res := execute(t, "", "dis", "testdata/markers.rbn")
	require.Nil(t, res.err)
	require.True(t, strings.HasPrefix(res.stdout, "+--------+------+"))
	require.Contains(t, res.stdout, "| ALLOCATE_TAPE  |          2 | 2 cells")
	require.Contains(t, res.stdout, "backward 5")
}

func TestDisJSON(t *testing.T) {
	res := execute(t, "", "dis", "-o", "json", "-c", "putch")
	require.Nil(t, res.err)
	var instructions []map[string]any
	require.Nil(t, json.Unmarshal([]byte(res.stdout), &instructions))
	require.Len(t, instructions, 2)
	require.Equal(t, "ALLOCATE_TAPE", instructions[0]["name"])
	require.Equal(t, "WRITE_CHAR", instructions[1]["name"])

	res = execute(t, "", "dis", "-o", "yaml", "-c", "putch")
	require.EqualError(t, res.err, "unknown output format: yaml")
}

func TestDisNative(t *testing.T) {
	res := execute(t, "", "dis", "--native", "-c", "incr tape[idx] putch")
	require.Nil(t, res.err)
	require.Contains(t, res.stdout, "INSTRUCTION")
	require.Contains(t, res.stdout, "ret")

	res = execute(t, "", "dis", "--native", "-o", "json", "-c", "putch")
	require.Nil(t, res.err)
	var lines []map[string]any
	require.Nil(t, json.Unmarshal([]byte(res.stdout), &lines))
	require.NotEmpty(t, lines)
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.Nil(t, res.err)
	require.Equal(t, "dev\n", res.stdout)

	res = execute(t, "", "version", "-o", "json")
	require.Nil(t, res.err)
	var info map[string]string
	require.Nil(t, json.Unmarshal([]byte(res.stdout), &info))
	require.Equal(t, "dev", info["version"])
}

func TestGuardInterruptExitsStuckRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	codes := make(chan int, 1)
	finished := make(chan struct{})
	defer close(finished)

	go guardInterrupt(ctx, func() { close(stopped) }, finished, 10*time.Millisecond,
		func(code int) { codes <- code })
	cancel()

	select {
	case code := <-codes:
		require.Equal(t, 130, code)
	case <-time.After(5 * time.Second):
		t.Fatal("stuck run was not ended")
	}
	select {
	case <-stopped:
	default:
		t.Fatal("signal handling was not restored")
	}
}

func TestGuardInterruptLetsRunReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exited := make(chan int, 1)
	finished := make(chan struct{})
	done := make(chan struct{})
	go func() {
		guardInterrupt(ctx, func() {}, finished, time.Second, func(code int) { exited <- code })
		close(done)
	}()
	cancel()
	close(finished)
	<-done
	require.Empty(t, exited)
}

func TestGuardInterruptIdleAfterRun(t *testing.T) {
	exited := make(chan int, 1)
	finished := make(chan struct{})
	close(finished)
	guardInterrupt(context.Background(), func() {}, finished, time.Millisecond,
		func(code int) { exited <- code })
	require.Empty(t, exited)
}

func TestRunCancelled(t *testing.T) {
	exited := make(chan int, 1)
	previous := exitProcess
	exitProcess = func(code int) { exited <- code }
	t.Cleanup(func() { exitProcess = previous })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := executeContext(t, ctx, "", "run", "-c", "incr tape[idx] loop ( incr idx decr idx )")
	require.ErrorIs(t, res.err, context.DeadlineExceeded)
	require.Equal(t, 1, errz.ExitCode(res.err))
	require.Empty(t, exited)
}
