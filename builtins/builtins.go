// Package builtins defines a default set of built-in functions.
package builtins

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/object"
)

func Len(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewArgsError("len", 1, len(args))
	}
	container, ok := args[0].(object.Container)
	if !ok {
		return nil, errz.TypeErrorf("type error: len() unsupported argument (%s given)", args[0].Type())
	}
	return container.Len(), nil
}

func Print(ctx context.Context, args ...object.Object) (object.Object, error) {
	values := make([]interface{}, len(args))
	for i, arg := range args {
		values[i] = object.PrintableValue(arg)
	}
	fmt.Println(values...)
	return object.Nil, nil
}

func Printf(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) < 1 {
		return nil, errz.TypeErrorf("type error: printf() takes at least 1 argument (0 given)")
	}
	format, ok := args[0].(*object.String)
	if !ok {
		return nil, errz.TypeErrorf("type error: printf() expected a string (%s given)", args[0].Type())
	}
	values := make([]interface{}, len(args)-1)
	for i, arg := range args[1:] {
		values[i] = object.PrintableValue(arg)
	}
	fmt.Fprintf(os.Stdout, format.Value(), values...)
	return object.Nil, nil
}

func Sprintf(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) < 1 {
		return nil, errz.TypeErrorf("type error: sprintf() takes at least 1 argument (0 given)")
	}
	format, ok := args[0].(*object.String)
	if !ok {
		return nil, errz.TypeErrorf("type error: sprintf() expected a string (%s given)", args[0].Type())
	}
	values := make([]interface{}, len(args)-1)
	for i, arg := range args[1:] {
		values[i] = object.PrintableValue(arg)
	}
	return object.NewString(fmt.Sprintf(format.Value(), values...)), nil
}

// Error creates an error value without throwing it. Use throw to raise it.
// Example: let err = error("file %s not found", filename)
func Error(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) < 1 {
		return nil, errz.TypeErrorf("type error: error() takes at least 1 argument (0 given)")
	}
	format, ok := args[0].(*object.String)
	if !ok {
		return nil, errz.TypeErrorf("type error: error() expected a string (%s given)", args[0].Type())
	}
	values := make([]interface{}, len(args)-1)
	for i, arg := range args[1:] {
		values[i] = object.PrintableValue(arg)
	}
	return object.NewError(fmt.Errorf(format.Value(), values...)), nil
}

func Type(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewArgsError("type", 1, len(args))
	}
	return object.NewString(string(args[0].Type())), nil
}

func List(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("list", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.NewList(nil), nil
	}
	items, err := collect(ctx, "list", args[0])
	if err != nil {
		return nil, err
	}
	return object.NewList(items), nil
}

func Set(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("set", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.NewEmptySet(), nil
	}
	items, err := collect(ctx, "set", args[0])
	if err != nil {
		return nil, err
	}
	return object.NewSet(items)
}

func Range(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, object.NewArgsRangeError("range", 1, 3, len(args))
	}
	values := make([]int64, len(args))
	for i, arg := range args {
		intArg, ok := arg.(*object.Int)
		if !ok {
			return nil, errz.TypeErrorf("type error: range() expected an int (%s given)", arg.Type())
		}
		values[i] = intArg.Value()
	}
	switch len(values) {
	case 1:
		return object.NewRange(0, values[0], 1)
	case 2:
		return object.NewRange(values[0], values[1], 1)
	default:
		return object.NewRange(values[0], values[1], values[2])
	}
}

// Locals returns a snapshot of the variables visible at the call site,
// including any comprehension variables active at that point.
func Locals(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) != 0 {
		return nil, object.NewArgsError("locals", 0, len(args))
	}
	localsFn, found := object.GetLocalsFunc(ctx)
	if !found {
		return nil, errz.RuntimeErrorf("runtime error: locals() is not available in this context")
	}
	return localsFn(ctx)
}

func String(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("string", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.NewString(""), nil
	}
	switch arg := args[0].(type) {
	case *object.String:
		return arg, nil
	default:
		if s, ok := args[0].(fmt.Stringer); ok {
			return object.NewString(s.String()), nil
		}
		return object.NewString(args[0].Inspect()), nil
	}
}

func Bool(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("bool", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.False, nil
	}
	return object.NewBool(args[0].IsTruthy()), nil
}

func Int(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("int", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.NewInt(0), nil
	}
	switch obj := args[0].(type) {
	case *object.Int:
		return obj, nil
	case *object.Float:
		return object.NewInt(int64(obj.Value())), nil
	case *object.String:
		if i, err := strconv.ParseInt(obj.Value(), 0, 64); err == nil {
			return object.NewInt(i), nil
		}
		return nil, errz.ValueErrorf("value error: invalid literal for int(): %q", obj.Value())
	default:
		return nil, errz.TypeErrorf("type error: int() unsupported argument (%s given)", args[0].Type())
	}
}

func Float(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) > 1 {
		return nil, object.NewArgsRangeError("float", 0, 1, len(args))
	}
	if len(args) == 0 {
		return object.NewFloat(0), nil
	}
	switch obj := args[0].(type) {
	case *object.Int:
		return object.NewFloat(float64(obj.Value())), nil
	case *object.Float:
		return obj, nil
	case *object.String:
		if f, err := strconv.ParseFloat(obj.Value(), 64); err == nil {
			return object.NewFloat(f), nil
		}
		return nil, errz.ValueErrorf("value error: invalid literal for float(): %q", obj.Value())
	default:
		return nil, errz.TypeErrorf("type error: float() unsupported argument (%s given)", args[0].Type())
	}
}

func Keys(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewArgsError("keys", 1, len(args))
	}
	m, ok := args[0].(*object.Map)
	if !ok {
		return nil, errz.TypeErrorf("type error: keys() expected a map (%s given)", args[0].Type())
	}
	return object.NewList(m.Keys()), nil
}

func Assert(ctx context.Context, args ...object.Object) (object.Object, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, object.NewArgsRangeError("assert", 1, 2, len(args))
	}
	if !args[0].IsTruthy() {
		if len(args) == 2 {
			if msg, ok := args[1].(*object.String); ok {
				return nil, errz.RuntimeErrorf("%s", msg.Value())
			}
			return nil, errz.RuntimeErrorf("%s", args[1].Inspect())
		}
		return nil, errz.RuntimeErrorf("assertion failed")
	}
	return object.Nil, nil
}

func collect(ctx context.Context, fn string, arg object.Object) ([]object.Object, error) {
	iterable, ok := arg.(object.Iterable)
	if !ok {
		return nil, errz.TypeErrorf("type error: %s() expected an iterable (%s given)", fn, arg.Type())
	}
	var items []object.Object
	iter := iterable.Iter()
	for {
		value, ok := iter.Next(ctx)
		if !ok {
			break
		}
		items = append(items, value)
	}
	return items, nil
}

// Builtins returns the default global functions available to programs.
func Builtins() map[string]object.Object {
	return map[string]object.Object{
		"assert":  object.NewBuiltin("assert", Assert),
		"bool":    object.NewBuiltin("bool", Bool),
		"error":   object.NewBuiltin("error", Error),
		"float":   object.NewBuiltin("float", Float),
		"int":     object.NewBuiltin("int", Int),
		"keys":    object.NewBuiltin("keys", Keys),
		"len":     object.NewBuiltin("len", Len),
		"list":    object.NewBuiltin("list", List),
		"locals":  object.NewBuiltin("locals", Locals),
		"print":   object.NewBuiltin("print", Print),
		"printf":  object.NewBuiltin("printf", Printf),
		"range":   object.NewBuiltin("range", Range),
		"set":     object.NewBuiltin("set", Set),
		"sprintf": object.NewBuiltin("sprintf", Sprintf),
		"string":  object.NewBuiltin("string", String),
		"type":    object.NewBuiltin("type", Type),
	}
}
