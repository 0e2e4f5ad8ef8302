// Package quill provides the top-level API for compiling and running Quill
// source code.
//
// The simplest entrypoint is Eval, which parses, compiles, and runs source
// code in one call:
//
//	result, err := quill.Eval(ctx, "let x = 2\n[x * n for n in [1, 2, 3]]")
//
// For repeated execution, Compile once and Run the resulting Program many
// times. A Program is immutable and safe for concurrent use.
package quill

import (
	"context"
	"sort"

	"github.com/quill-lang/quill/builtins"
	"github.com/quill-lang/quill/compiler"
	"github.com/quill-lang/quill/object"
	"github.com/quill-lang/quill/parser"
	"github.com/quill-lang/quill/vm"
)

// Option configures a Quill compilation or execution.
type Option func(*options)

type options struct {
	globals         map[string]object.Object
	filename        string
	observer        vm.Observer
	withoutDefaults bool
}

func collectOptions(opts ...Option) *options {
	o := &options{globals: map[string]object.Object{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// effectiveGlobals merges the default builtins with any user-supplied
// globals. User values win on name conflicts.
func (o *options) effectiveGlobals() map[string]object.Object {
	globals := map[string]object.Object{}
	if !o.withoutDefaults {
		for k, v := range builtins.Builtins() {
			globals[k] = v
		}
	}
	for k, v := range o.globals {
		globals[k] = v
	}
	return globals
}

// WithGlobals provides named values that are made available to Quill
// programs. This option is additive, so multiple WithGlobals options may be
// supplied. If the same name is supplied multiple times, the last value wins.
func WithGlobals(globals map[string]object.Object) Option {
	return func(o *options) {
		for k, v := range globals {
			o.globals[k] = v
		}
	}
}

// WithoutDefaultGlobals disables the standard builtin functions. Only
// globals supplied via WithGlobals are then available.
func WithoutDefaultGlobals() Option {
	return func(o *options) {
		o.withoutDefaults = true
	}
}

// WithFilename sets the filename for the source code being evaluated.
// This is used for error messages and stack traces.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithObserver sets an observer for VM execution events. The observer
// receives callbacks for instruction steps, function calls, and function
// returns. This enables profilers, debuggers, and execution tracers.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Builtins returns the default global functions available to programs.
// Modify the returned map to customize the environment:
//
//	env := quill.Builtins()
//	env["greeting"] = object.NewString("hello")
//	result, _ := quill.Eval(ctx, source, quill.WithoutDefaultGlobals(), quill.WithGlobals(env))
func Builtins() map[string]object.Object {
	return builtins.Builtins()
}

// Compile parses and compiles source code into an executable Program.
// The returned Program is immutable and safe for concurrent use.
func Compile(source string, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)

	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	program, err := parser.Parse(context.Background(), source, parserOpts...)
	if err != nil {
		return nil, err
	}

	globals := o.effectiveGlobals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	code, err := compiler.Compile(program, &compiler.Config{
		GlobalNames: names,
		Filename:    o.filename,
		Source:      source,
	})
	if err != nil {
		return nil, err
	}
	return newProgram(code, source, o.filename), nil
}

// Run executes a compiled Program and returns the value of its final
// expression. Each call creates fresh runtime state, allowing concurrent
// execution of the same Program.
func Run(ctx context.Context, program *Program, opts ...Option) (object.Object, error) {
	o := collectOptions(opts...)
	vmOpts := []vm.Option{vm.WithGlobals(o.effectiveGlobals())}
	if o.observer != nil {
		vmOpts = append(vmOpts, vm.WithObserver(o.observer))
	}
	return vm.Run(ctx, program.Code(), vmOpts...)
}

// Eval is a convenience function that compiles and runs source code. It is
// equivalent to Compile followed by Run.
func Eval(ctx context.Context, source string, opts ...Option) (object.Object, error) {
	program, err := Compile(source, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, program, opts...)
}
