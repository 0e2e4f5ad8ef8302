package vm

import (
	"errors"
	"testing"

	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/object"
	"github.com/stretchr/testify/require"
)

func TestThrowAndCatch(t *testing.T) {
	src := `
	let r = 0
	try {
		throw error("boom")
		r = 1
	} catch {
		r = 2
	}
	r`
	require.Equal(t, object.NewInt(2), mustEval(t, src))
}

func TestCatchVariableBinding(t *testing.T) {
	src := `
	let kind = ""
	try {
		throw error("kaboom")
	} catch e {
		kind = type(e)
	}
	kind`
	require.Equal(t, object.NewString("error"), mustEval(t, src))
}

// Any value can be thrown, not just errors. The catch variable is bound to
// the thrown value as is.
func TestThrownValuePassesThrough(t *testing.T) {
	src := `
	let r = 0
	try {
		throw 42
	} catch e {
		r = e
	}
	r`
	require.Equal(t, object.NewInt(42), mustEval(t, src))
}

func TestRuntimeErrorCatchable(t *testing.T) {
	src := `
	let r = 0
	try {
		1 / 0
	} catch {
		r = 1
	}
	r`
	require.Equal(t, object.NewInt(1), mustEval(t, src))
}

func TestCatchFromCalledFunction(t *testing.T) {
	src := `
	func boom() {
		return 1 / 0
	}
	let r = 0
	try {
		boom()
	} catch {
		r = 1
	}
	r`
	require.Equal(t, object.NewInt(1), mustEval(t, src))
}

func TestUncaughtRuntimeError(t *testing.T) {
	_, err := evalSource(t, "1 / 0", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestUncaughtThrow(t *testing.T) {
	_, err := evalSource(t, `throw error("boom")`, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestReturnInsideTry(t *testing.T) {
	src := `
	func f() {
		try {
			return 42
		} catch {
			return 0
		}
	}
	f()`
	require.Equal(t, object.NewInt(42), mustEval(t, src))
}

// A break that jumps out of a try block must discard the try's exception
// handler. A later error would otherwise be routed to the dead handler.
func TestBreakInsideTry(t *testing.T) {
	src := `
	for i in [1, 2, 3] {
		try {
			if i == 2 {
				break
			}
		} catch {}
	}
	let r = 0
	try {
		1 / 0
	} catch {
		r = 9
	}
	r`
	require.Equal(t, object.NewInt(9), mustEval(t, src))
}

func TestContinueInsideTry(t *testing.T) {
	src := `
	let total = 0
	for i in [1, 2, 3, 4] {
		try {
			if i % 2 == 0 {
				continue
			}
			total = total + i
		} catch {}
	}
	let r = 0
	try {
		1 / 0
	} catch {
		r = 1
	}
	[total, r]`
	require.Equal(t, "[4, 1]", mustEval(t, src).Inspect())
}

// An error thrown while a comprehension is running must restore the
// variables the comprehension displaced before the catch block executes.
func TestComprehensionErrorRestoresVariables(t *testing.T) {
	src := `
	func f() {
		let x = 5
		let r = 0
		try {
			[10 / (x - x) for x in [1, 2]]
		} catch {
			r = 1
		}
		return [x, r]
	}
	f()`
	require.Equal(t, "[5, 1]", mustEval(t, src).Inspect())
}

func TestComprehensionErrorInCalledFunction(t *testing.T) {
	src := `
	func g() {
		let x = 5
		return [10 / (x - x) for x in [1, 2]]
	}
	func f() {
		let r = 0
		try {
			g()
		} catch {
			r = 1
		}
		return r
	}
	f()`
	require.Equal(t, object.NewInt(1), mustEval(t, src))
}

// A fault raised by a function called from a comprehension body produces a
// stack with the callee directly above the enclosing function. The
// comprehension contributes no frame, and the enclosing function is
// attributed the comprehension's source line.
func TestStackOmitsComprehensionFrame(t *testing.T) {
	src := `func boom(n) {
	return n / 0
}
func outer() {
	return [boom(n) for n in [1]]
}
outer()`
	_, err := evalSource(t, src, nil)
	require.Error(t, err)
	var structured *errz.StructuredError
	require.True(t, errors.As(err, &structured))
	require.Len(t, structured.Stack, 3)
	require.Equal(t, "boom", structured.Stack[0].Function)
	require.Equal(t, 2, structured.Stack[0].Location.Line)
	require.Equal(t, "outer", structured.Stack[1].Function)
	require.Equal(t, 5, structured.Stack[1].Location.Line)
	require.Equal(t, "", structured.Stack[2].Function)
	require.Equal(t, 7, structured.Stack[2].Location.Line)
}

func TestErrorLocationAndStack(t *testing.T) {
	src := `func boom() {
	return 1 / 0
}
boom()`
	_, err := evalSource(t, src, nil)
	require.Error(t, err)
	var structured *errz.StructuredError
	require.True(t, errors.As(err, &structured))
	require.Greater(t, structured.Location.Line, 0)
	require.NotEmpty(t, structured.Stack)
}
