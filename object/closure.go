package object

import (
	"context"
	"fmt"

	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/op"
)

var _ Callable = (*Closure)(nil) // Ensure that *Closure implements Callable

// Closure is a runtime function instance with captured variables.
// It references an immutable compiler.Function for its signature and code,
// and holds the free variable cells captured at definition time.
type Closure struct {
	*base
	fn       *compiler.Function
	freeVars []*Cell
}

func (f *Closure) Type() Type {
	return FUNCTION
}

// Name returns the function name (delegates to compiler.Function).
func (f *Closure) Name() string {
	return f.fn.Name()
}

func (f *Closure) Inspect() string {
	return f.String()
}

func (f *Closure) String() string {
	if f.fn.Name() != "" {
		return fmt.Sprintf("func %s() { ... }", f.fn.Name())
	}
	return "func() { ... }"
}

func (f *Closure) Interface() interface{} {
	return nil
}

func (f *Closure) Equals(other Object) bool {
	return f == other
}

func (f *Closure) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for function: %v", opType)
}

// FreeVarCount returns the number of captured variables.
func (f *Closure) FreeVarCount() int {
	return len(f.freeVars)
}

// FreeVar returns the captured variable at the given index.
func (f *Closure) FreeVar(index int) *Cell {
	return f.freeVars[index]
}

// FreeVars returns all captured variable cells.
func (f *Closure) FreeVars() []*Cell {
	return f.freeVars
}

// Code returns the bytecode for this function's body.
func (f *Closure) Code() *compiler.Code {
	return f.fn.Code()
}

// Function returns the underlying compiler.Function.
func (f *Closure) Function() *compiler.Function {
	return f.fn
}

// ParameterCount returns the number of parameters.
func (f *Closure) ParameterCount() int {
	return f.fn.ParametersCount()
}

// Parameter returns the parameter name at the given index.
func (f *Closure) Parameter(index int) string {
	return f.fn.Parameter(index)
}

func (f *Closure) MarshalJSON() ([]byte, error) {
	return nil, TypeErrorf("type error: unable to marshal function")
}

func (f *Closure) Call(ctx context.Context, args ...Object) (Object, error) {
	callFunc, found := GetCallFunc(ctx)
	if !found {
		return nil, EvalErrorf("eval error: context did not contain a call function")
	}
	return callFunc(ctx, f, args)
}

// NewClosure creates a Closure from a compiler.Function template.
func NewClosure(fn *compiler.Function) *Closure {
	return &Closure{fn: fn}
}

// CloneWithCaptures creates a new closure from an existing closure with
// captured variables.
func CloneWithCaptures(c *Closure, freeVars []*Cell) *Closure {
	return &Closure{fn: c.fn, freeVars: freeVars}
}
