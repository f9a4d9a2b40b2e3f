package main

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ribbon-lang/ribbon"
	"github.com/ribbon-lang/ribbon/vm"
)

func getRibbonOptions(cmd *cobra.Command, filename string, logger zerolog.Logger) []ribbon.Option {
	opts := []ribbon.Option{
		ribbon.WithJIT(viper.GetBool("jit")),
		ribbon.WithDefaultTapeSize(viper.GetInt("default-tape-size")),
		ribbon.WithLogger(logger),
		ribbon.WithOutput(cmd.OutOrStdout()),
	}
	if filename != "" {
		opts = append(opts, ribbon.WithFilename(filename))
	}
	if viper.GetBool("trace") {
		opts = append(opts, ribbon.WithObserver(vm.LogObserver{
			Logger: logger,
			Mode:   vm.StepAll,
		}))
	}
	return opts
}

// getRibbonCode determines the source to compile. There are three
// possibilities: --code, --stdin, or a path as args[0].
func getRibbonCode(cmd *cobra.Command, args []string) (string, error) {
	codeFlagSet := flagChanged(cmd, "code")
	stdinFlagSet := viper.GetBool("stdin")
	pathSupplied := len(args) > 0

	count := 0
	for _, set := range []bool{codeFlagSet, stdinFlagSet, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", errors.New("multiple input sources specified")
	}
	if count == 0 {
		return "", errors.New("no input provided")
	}

	if stdinFlagSet {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if pathSupplied {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return viper.GetString("code"), nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
