package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:           "quill [file]",
		Short:         "Quill is a small scripting language with inlined comprehensions",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHandler,
	}
	root.Flags().StringP("code", "c", "", "Code to evaluate")
	root.Flags().Bool("stdin", false, "Read code from stdin")
	root.Flags().Bool("trace", false, "Log each executed instruction")
	root.Flags().Bool("timing", false, "Show execution time")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	disCmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble Quill bytecode",
		Args:  cobra.MaximumNArgs(1),
		RunE:  disHandler,
	}
	disCmd.Flags().StringP("code", "c", "", "Code to disassemble")
	disCmd.Flags().Bool("stdin", false, "Read code from stdin")
	disCmd.Flags().String("func", "", "Function to disassemble")
	root.AddCommand(disCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quill %s (%s)\n", version, commit)
		},
	})

	cobra.OnInitialize(func() {
		if noColor, _ := root.PersistentFlags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	})

	if err := root.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	msg := err.Error()
	if isatty.IsTerminal(os.Stderr.Fd()) && !color.NoColor {
		msg = color.New(color.FgRed).Sprint(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
}
