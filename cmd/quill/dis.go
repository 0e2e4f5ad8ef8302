package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quill"
	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/dis"
)

func disHandler(cmd *cobra.Command, args []string) error {
	source, filename, err := getSource(cmd, args)
	if err != nil {
		return err
	}

	program, err := quill.Compile(source, quill.WithFilename(filename))
	if err != nil {
		return err
	}
	targetCode := program.Code()

	// If a function name was provided, disassemble its code only
	if funcName, _ := cmd.Flags().GetString("func"); funcName != "" {
		var fn *compiler.Function
		for i := 0; i < targetCode.ConstantsCount(); i++ {
			obj, ok := targetCode.Constant(uint16(i)).(*compiler.Function)
			if !ok {
				continue
			}
			if obj.Name() == funcName {
				fn = obj
				break
			}
		}
		if fn == nil {
			return fmt.Errorf("function %q not found", funcName)
		}
		targetCode = fn.Code()
	}

	instructions, err := dis.Disassemble(targetCode)
	if err != nil {
		return err
	}
	dis.Print(instructions, os.Stdout)
	return nil
}
