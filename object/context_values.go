package object

import (
	"context"
)

type contextKey string

// CallFunc is a type signature for a function that can call a Quill function.
type CallFunc func(ctx context.Context, fn *Closure, args []Object) (Object, error)

// LocalsFunc is a type signature for a function that returns the local
// variables visible at the current execution point.
type LocalsFunc func(ctx context.Context) (*Map, error)

const (
	callFuncKey   = contextKey("quill:call")
	localsFuncKey = contextKey("quill:locals")
)

// WithCallFunc adds a CallFunc to the context, which can be used by
// objects to call a Quill function at runtime.
func WithCallFunc(ctx context.Context, fn CallFunc) context.Context {
	return context.WithValue(ctx, callFuncKey, fn)
}

// GetCallFunc returns the CallFunc from the context, if it exists.
func GetCallFunc(ctx context.Context) (CallFunc, bool) {
	if fn, ok := ctx.Value(callFuncKey).(CallFunc); ok {
		if fn != nil {
			return fn, ok
		}
	}
	return nil, false
}

// WithLocalsFunc adds a LocalsFunc to the context, which is used by the
// locals() builtin to inspect the active frame's named variables.
func WithLocalsFunc(ctx context.Context, fn LocalsFunc) context.Context {
	return context.WithValue(ctx, localsFuncKey, fn)
}

// GetLocalsFunc returns the LocalsFunc from the context, if it exists.
func GetLocalsFunc(ctx context.Context) (LocalsFunc, bool) {
	if fn, ok := ctx.Value(localsFuncKey).(LocalsFunc); ok {
		if fn != nil {
			return fn, ok
		}
	}
	return nil, false
}
