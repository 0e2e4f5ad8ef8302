package vm

import (
	"context"

	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/object"
)

// Run the given compiled code in a new virtual machine and return the value
// of the last expression.
func Run(ctx context.Context, main *compiler.Code, options ...Option) (object.Object, error) {
	machine := New(main, options...)
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	if result, exists := machine.TOS(); exists {
		return result, nil
	}
	return object.Nil, nil
}
