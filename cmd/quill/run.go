package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quill-lang/quill"
	"github.com/quill-lang/quill/object"
	"github.com/quill-lang/quill/vm"
)

func runHandler(cmd *cobra.Command, args []string) error {
	source, filename, err := getSource(cmd, args)
	if err != nil {
		return err
	}

	opts := []quill.Option{quill.WithFilename(filename)}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.TraceLevel).
			With().Timestamp().Logger()
		opts = append(opts, quill.WithObserver(vm.NewLoggingObserver(logger, vm.ObserverConfig{
			Steps: true,
			Calls: true,
		})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := quill.Eval(ctx, source, opts...)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	if result != object.Nil {
		fmt.Println(result.Inspect())
	}
	if timing, _ := cmd.Flags().GetBool("timing"); timing {
		fmt.Fprintf(os.Stderr, "%.3fms\n", float64(elapsed.Microseconds())/1000.0)
	}
	return nil
}

// getSource determines what code is to be executed. There are three
// possibilities: --code <code>, --stdin, or a path argument.
func getSource(cmd *cobra.Command, args []string) (source, filename string, err error) {
	codeFlagSet := cmd.Flags().Lookup("code").Changed
	stdinFlagSet, _ := cmd.Flags().GetBool("stdin")
	pathSupplied := len(args) > 0

	count := 0
	if codeFlagSet {
		count++
	}
	if stdinFlagSet {
		count++
	}
	if pathSupplied {
		count++
	}
	if count > 1 {
		return "", "", errors.New("multiple input sources specified")
	}
	if count == 0 {
		return "", "", errors.New("no input provided")
	}

	if stdinFlagSet {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "stdin", nil
	}
	if pathSupplied {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	}
	code, _ := cmd.Flags().GetString("code")
	return code, "", nil
}
