package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ribbon-lang/ribbon"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Compile and run a program",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHandler,
	}
}

func runHandler(cmd *cobra.Command, args []string) error {
	code, err := getRibbonCode(cmd, args)
	if err != nil {
		return err
	}
	var filename string
	if len(args) > 0 {
		filename = args[0]
	}
	logger, err := newLogger(cmd.ErrOrStderr(), "run")
	if err != nil {
		return err
	}
	opts := getRibbonOptions(cmd, filename, logger)
	// The program reads stdin itself unless its source came from there.
	if viper.GetBool("stdin") {
		opts = append(opts, ribbon.WithInput(eofReader{}))
	} else {
		opts = append(opts, ribbon.WithInput(cmd.InOrStdin()))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go guardInterrupt(ctx, stop, finished, interruptGrace, exitProcess)

	logger = logger.With().Str("backend", ribbon.SelectBackend(opts...)).Logger()
	opts = append(opts, ribbon.WithLogger(logger))
	logger.Debug().Str("file", filename).Int("bytes", len(code)).Msg("starting run")
	return ribbon.Run(ctx, code, opts...)
}

const (
	// interruptGrace is how long a cancelled run may take to return before
	// the process exits on its own.
	interruptGrace = 500 * time.Millisecond

	// exitInterrupted is the conventional status for death by SIGINT.
	exitInterrupted = 130
)

var exitProcess = os.Exit

// guardInterrupt waits for ctx to end while the run is in flight, then
// restores default signal handling so a second signal kills the process. A
// run that has not returned within grace (native code observes ctx only at
// I/O exits) is ended with exitInterrupted.
func guardInterrupt(ctx context.Context, stop context.CancelFunc, finished <-chan struct{}, grace time.Duration, exit func(int)) {
	select {
	case <-finished:
		return
	case <-ctx.Done():
	}
	stop()
	select {
	case <-finished:
	case <-time.After(grace):
		exit(exitInterrupted)
	}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
