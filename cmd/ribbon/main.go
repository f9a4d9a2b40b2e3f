package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ribbon-lang/ribbon/tape"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ribbon [file]",
		Short: "Compile and run Ribbon tape programs",
		Long: `Ribbon compiles programs for a tape of byte cells and runs them on a
bytecode interpreter or, with --jit, as native x86-64 code.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(viper.GetString("config")); err != nil {
				return err
			}
			processGlobalFlags()
			return nil
		},
		RunE: runHandler,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.ribbon.yaml)")
	flags.StringP("code", "c", "", "code to run")
	flags.Bool("stdin", false, "read code from stdin")
	flags.Bool("jit", false, "run as native code where supported")
	flags.Bool("trace", false, "log every interpreter step")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.Int("default-tape-size", tape.DefaultSize, "tape size when the program declares none")
	viper.BindPFlags(flags)

	root.AddCommand(newRunCmd(), newDisCmd(), newVersionCmd())
	return root
}

// initConfig reads the config file and RIBBON_* environment variables.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".ribbon")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("ribbon")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.ToLower(viper.GetString("output")) == "json" {
				data, err := getOutputJSON(map[string]any{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	}
	return cmd
}
