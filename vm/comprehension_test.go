package vm

import (
	"testing"

	"github.com/quill-lang/quill/object"
	"github.com/stretchr/testify/require"
)

func TestListComprehension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[v for v in [1, 2, 3]]", "[1, 2, 3]"},
		{"[v * 2 for v in [1, 2, 3]]", "[2, 4, 6]"},
		{"[v for v in range(10) if v % 2 == 0]", "[0, 2, 4, 6, 8]"},
		{"[v for v in range(10) if v % 2 == 0 if v > 2]", "[4, 6, 8]"},
		{"[a * 10 + b for a in [1, 2] for b in [3, 4]]", "[13, 14, 23, 24]"},
		{"[a * 10 + b for a in [1, 2] if a > 1 for b in [3, 4]]", "[23, 24]"},
		{"[ch + ch for ch in \"ab\"]", `["aa", "bb"]`},
		{"[v for v in []]", "[]"},
		{"[v for v in [1, 2] if v > 5]", "[]"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, mustEval(t, tc.input).Inspect(), tc.input)
	}
}

func TestSetComprehension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{v for v in [1, 2, 2, 3]}", "{1, 2, 3}"},
		{"{v % 3 for v in [3, 6, 9]}", "{0}"},
		{"{v for v in [] if true}", "{}"},
	}
	for _, tc := range tests {
		result := mustEval(t, tc.input)
		require.IsType(t, &object.Set{}, result, tc.input)
		require.Equal(t, tc.want, result.Inspect(), tc.input)
	}
}

func TestMapComprehension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{k: k * k for k in [1, 2, 3]}", "{1: 1, 2: 4, 3: 9}"},
		{"{k: v for k in [\"a\"] for v in [1]}", `{"a": 1}`},
		{"{k: k for k in range(4) if k % 2 == 1}", "{1: 1, 3: 3}"},
	}
	for _, tc := range tests {
		result := mustEval(t, tc.input)
		require.IsType(t, &object.Map{}, result, tc.input)
		require.Equal(t, tc.want, result.Inspect(), tc.input)
	}
}

func TestNestedComprehension(t *testing.T) {
	require.Equal(t, "[[1, 2], [2, 4]]",
		mustEval(t, "[[i * j for j in [1, 2]] for i in [1, 2]]").Inspect())
}

func TestComprehensionOverComprehension(t *testing.T) {
	require.Equal(t, "[2, 4, 6]",
		mustEval(t, "[v * 2 for v in [n for n in [1, 2, 3]]]").Inspect())
}

// A module-level variable with the same name as the comprehension variable
// keeps its value: the comprehension binds a fresh slot.
func TestModuleVariableIsolation(t *testing.T) {
	src := `
	let x = 99
	let out = [x + 0 for x in [1, 2, 3]]
	[x, out]`
	require.Equal(t, "[99, [1, 2, 3]]", mustEval(t, src).Inspect())
}

// A function local sharing the comprehension variable's name is saved at
// region entry and restored at region exit.
func TestFunctionLocalIsolation(t *testing.T) {
	src := `
	func f() {
		let x = 5
		let out = [x * x for x in [1, 2, 3]]
		return [x, out]
	}
	f()`
	require.Equal(t, "[5, [1, 4, 9]]", mustEval(t, src).Inspect())
}

// Nested comprehensions reusing the same variable name restore correctly
// at every level.
func TestNestedSameVariable(t *testing.T) {
	src := `
	func f() {
		let x = 7
		let m = [[x for x in [1, 2]] for x in [3, 4]]
		return [x, m]
	}
	f()`
	require.Equal(t, "[7, [[1, 2], [1, 2]]]", mustEval(t, src).Inspect())
}

// A captured variable shadows into a fresh slot, so a closure reading it
// sees its original value after the comprehension completes.
func TestClosureSeesRestoredValue(t *testing.T) {
	src := `
	func f() {
		let x = 1
		func g() { return x }
		let out = [x for x in [10, 20]]
		return [g(), out]
	}
	f()`
	require.Equal(t, "[1, [10, 20]]", mustEval(t, src).Inspect())
}

// The closure's cell aliases the outer slot, so the slot must not be
// written while the comprehension runs. Calling the closure from inside
// the body observes the outer binding, not the iteration value.
func TestClosureCalledDuringComprehension(t *testing.T) {
	src := `
	func f() {
		let x = 1
		func g() { return x }
		return [g() for x in [10, 20]]
	}
	f()`
	require.Equal(t, "[1, 1]", mustEval(t, src).Inspect())
}

// Same shape with the closure reading and the body mixing both bindings.
func TestClosureAndLoopVariableDistinct(t *testing.T) {
	src := `
	func f() {
		let x = 100
		func g() { return x }
		let out = [x + g() for x in [1, 2, 3]]
		return [out, x]
	}
	f()`
	require.Equal(t, "[[101, 102, 103], 100]", mustEval(t, src).Inspect())
}

// The comprehension variable is visible to closures created inside the
// comprehension body.
func TestClosureInsideComprehension(t *testing.T) {
	src := `
	func f() {
		return [func() { return n * 2 }() for n in [1, 2, 3]]
	}
	f()`
	require.Equal(t, "[2, 4, 6]", mustEval(t, src).Inspect())
}

// The iterable of the first clause evaluates before the region begins, so
// it sees the enclosing binding of the comprehension variable.
func TestOutermostIterableSeesOuterBinding(t *testing.T) {
	src := `
	func f() {
		let x = [1, 2, 3]
		return [x * 10 for x in x]
	}
	f()`
	require.Equal(t, "[10, 20, 30]", mustEval(t, src).Inspect())
}

func TestComprehensionResultAssignment(t *testing.T) {
	src := `
	let squares = [v * v for v in range(5)]
	squares[4]`
	require.Equal(t, object.NewInt(16), mustEval(t, src))
}

func TestComprehensionInsideLoop(t *testing.T) {
	src := `
	let all = []
	for i in [1, 2] {
		for v in [v * i for v in [10, 20]] {
			all = all + [v]
		}
	}
	all`
	require.Equal(t, "[10, 20, 20, 40]", mustEval(t, src).Inspect())
}

func TestComprehensionOverNonIterable(t *testing.T) {
	_, err := evalSource(t, "[v for v in 42]", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not iterable")
}

func TestLocalsInsideComprehension(t *testing.T) {
	src := `
	func f() {
		let a = 5
		return [locals() for q in [1]]
	}
	f()`
	result := mustEval(t, src)
	list, ok := result.(*object.List)
	require.True(t, ok)
	require.Len(t, list.Value(), 1)
	snapshot, ok := list.Value()[0].(*object.Map)
	require.True(t, ok)

	a, found := snapshot.Get(object.NewString("a"))
	require.True(t, found)
	require.Equal(t, object.NewInt(5), a)

	q, found := snapshot.Get(object.NewString("q"))
	require.True(t, found)
	require.Equal(t, object.NewInt(1), q)
}

func TestLocalsAfterComprehension(t *testing.T) {
	src := `
	func f() {
		let a = 5
		let inside = [q for q in [1]]
		return locals()
	}
	f()`
	result := mustEval(t, src)
	snapshot, ok := result.(*object.Map)
	require.True(t, ok)

	_, found := snapshot.Get(object.NewString("a"))
	require.True(t, found)
	_, found = snapshot.Get(object.NewString("inside"))
	require.True(t, found)

	// The comprehension variable is gone once the region exits
	_, found = snapshot.Get(object.NewString("q"))
	require.False(t, found)
}

func TestModuleLocalsInsideComprehension(t *testing.T) {
	src := `
	let base = 2
	[locals() for q in [7]]`
	result := mustEval(t, src)
	list, ok := result.(*object.List)
	require.True(t, ok)
	snapshot, ok := list.Value()[0].(*object.Map)
	require.True(t, ok)

	base, found := snapshot.Get(object.NewString("base"))
	require.True(t, found)
	require.Equal(t, object.NewInt(2), base)

	q, found := snapshot.Get(object.NewString("q"))
	require.True(t, found)
	require.Equal(t, object.NewInt(7), q)
}
