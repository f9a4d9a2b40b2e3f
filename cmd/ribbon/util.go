package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/uuid"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ribbon-lang/ribbon/errz"
)

var red = color.New(color.FgRed).SprintFunc()

// fatal prints the error and exits with the status for its kind.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", red(errorMessage(err)))
	os.Exit(errz.ExitCode(err))
}

func errorMessage(err error) string {
	var fe errz.FriendlyError
	if errors.As(err, &fe) {
		return strings.TrimRight(fe.FriendlyErrorMessage(), "\n")
	}
	if errz.KindOf(err) == errz.ErrInternal {
		return err.Error()
	}
	return errz.Friendly(err)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

func getOutputJSON(v any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}

// newLogger returns a console logger tagged with a fresh run id.
func newLogger(w io.Writer, command string) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	if viper.GetBool("trace") {
		level = zerolog.TraceLevel
	}
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor, TimeFormat: time.Kitchen}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("run", id.String()).
		Str("command", command).
		Logger(), nil
}
