package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ribbon-lang/ribbon"
	"github.com/ribbon-lang/ribbon/dis"
	"github.com/ribbon-lang/ribbon/jit"
)

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble a program",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlag("output", cmd.Flags().Lookup("output"))
			viper.BindPFlag("native", cmd.Flags().Lookup("native"))
		},
		RunE: disHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	cmd.Flags().Bool("native", false, "list the x86-64 code generated by the JIT")
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	code, err := getRibbonCode(cmd, args)
	if err != nil {
		return err
	}
	var filename string
	if len(args) > 0 {
		filename = args[0]
	}
	logger, err := newLogger(cmd.ErrOrStderr(), "dis")
	if err != nil {
		return err
	}
	program, err := ribbon.Compile(code, getRibbonOptions(cmd, filename, logger)...)
	if err != nil {
		return err
	}

	format := strings.ToLower(viper.GetString("output"))
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format: %s", format)
	}
	out := cmd.OutOrStdout()

	if viper.GetBool("native") {
		// Generating code needs no executable memory, so listings work on
		// any platform.
		native, err := jit.Generate(program, logger)
		if err != nil {
			return err
		}
		lines := jit.Disassemble(native.Bytes)
		if format == "json" {
			return printJSON(cmd, lines)
		}
		return dis.PrintNative(lines, out)
	}

	instructions, err := dis.Disassemble(program)
	if err != nil {
		return err
	}
	if format == "json" {
		return printJSON(cmd, instructions)
	}
	return dis.Print(instructions, out)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := getOutputJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
