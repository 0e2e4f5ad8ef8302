package compiler

import (
	"fmt"
	"strings"
)

// Function is a compiled function definition. It pairs the function's
// parameter list with the Code containing its compiled body. Function values
// appearing in a Code's constants are converted to closures when the code is
// loaded for execution.
type Function struct {
	id         string
	name       string
	parameters []string
	body       string
	code       *Code
}

// FunctionOpts is used to create a new Function.
type FunctionOpts struct {
	ID         string
	Name       string
	Parameters []string
	Body       string
	Code       *Code
}

// NewFunction creates a new Function with the given options.
func NewFunction(opts FunctionOpts) *Function {
	return &Function{
		id:         opts.ID,
		name:       opts.Name,
		parameters: opts.Parameters,
		body:       opts.Body,
		code:       opts.Code,
	}
}

// ID returns a unique identifier for the function.
func (f *Function) ID() string {
	return f.id
}

// Name of the function, or "" if anonymous.
func (f *Function) Name() string {
	return f.name
}

// ParametersCount returns the number of parameters the function accepts.
func (f *Function) ParametersCount() int {
	return len(f.parameters)
}

// Parameter returns the name of the parameter at the given index.
func (f *Function) Parameter(index int) string {
	return f.parameters[index]
}

// Parameters returns a copy of the function's parameter names.
func (f *Function) Parameters() []string {
	result := make([]string, len(f.parameters))
	copy(result, f.parameters)
	return result
}

// Code returns the compiled body of the function.
func (f *Function) Code() *Code {
	return f.code
}

// LocalsCount returns the number of local variable slots the function uses.
func (f *Function) LocalsCount() int {
	return f.code.LocalsCount()
}

// String returns the function signature as source text.
func (f *Function) String() string {
	if f.name == "" {
		return fmt.Sprintf("func(%s)", strings.Join(f.parameters, ", "))
	}
	return fmt.Sprintf("func %s(%s)", f.name, strings.Join(f.parameters, ", "))
}
