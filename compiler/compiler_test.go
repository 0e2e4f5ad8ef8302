package compiler

import (
	"context"
	"testing"

	"github.com/quill-lang/quill/op"
	"github.com/quill-lang/quill/parser"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string, globalNames []string) *Code {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	code, err := Compile(program, &Config{GlobalNames: globalNames})
	require.NoError(t, err)
	return code
}

func compileError(t *testing.T, src string) error {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	_, err = Compile(program, &Config{})
	require.Error(t, err)
	return err
}

// opcodes walks the instruction stream, skipping operands, and returns the
// opcodes in order.
func opcodes(code *Code) []op.Code {
	var result []op.Code
	for i := 0; i < code.InstructionCount(); {
		opcode := code.Instruction(uint16(i))
		result = append(result, opcode)
		i += 1 + op.GetInfo(opcode).OperandCount
	}
	return result
}

func countOpcode(code *Code, target op.Code) int {
	count := 0
	for _, opcode := range opcodes(code) {
		if opcode == target {
			count++
		}
	}
	return count
}

func TestCompileSimpleProgram(t *testing.T) {
	code := compileSource(t, "let x = 1\nx + 2", nil)
	require.True(t, code.IsRoot())
	require.Equal(t, "__main__", code.Name())
	require.Greater(t, code.InstructionCount(), 0)
}

// A comprehension at module scope shadows its variable into a fresh
// anonymous slot. Nothing is saved or restored.
func TestModuleComprehensionRegion(t *testing.T) {
	code := compileSource(t, "let x = 1\nlet out = [x * 2 for x in [1, 2, 3]]", nil)
	require.Equal(t, 1, code.RegionCount())
	region := code.Region(0)
	require.Empty(t, region.SaveSlots)
	require.Len(t, region.Vars, 1)
	require.Equal(t, "x", region.Vars[0].Name)
	require.Zero(t, countOpcode(code, op.LoadFastAndClear))
	require.Equal(t, 1, countOpcode(code, op.BeginRegion))
	require.Equal(t, 1, countOpcode(code, op.EndRegion))
}

// Anonymous shadow slots appear as empty strings in the global name list,
// keeping them invisible to name lookups.
func TestShadowSlotIsAnonymous(t *testing.T) {
	code := compileSource(t, "let x = 1\nlet out = [x * 2 for x in [1, 2, 3]]", nil)
	names := code.GlobalNames()
	require.Contains(t, names, "x")
	require.Contains(t, names, "out")
	require.Contains(t, names, "")
}

// Inside a function, a comprehension variable that collides with an
// existing local reuses the local's slot with a save at entry and a
// restore at exit.
func TestFunctionComprehensionReusesLocalSlot(t *testing.T) {
	src := `
	func f() {
		let x = 1
		return [x * 2 for x in [1, 2, 3]]
	}`
	code := compileSource(t, src, nil)
	require.Equal(t, 1, code.ChildCount())
	fn := code.Child(0)
	require.Equal(t, 1, fn.RegionCount())
	region := fn.Region(0)
	require.Len(t, region.SaveSlots, 1)
	require.Len(t, region.Vars, 1)
	require.Equal(t, "x", region.Vars[0].Name)
	require.Equal(t, region.SaveSlots[0], region.Vars[0].Slot)
	require.Equal(t, 1, countOpcode(fn, op.LoadFastAndClear))
}

// A local captured by a nested closure is behind a cell that aliases its
// slot, so the comprehension shadows it instead of reusing the slot.
func TestFunctionComprehensionShadowsCapturedLocal(t *testing.T) {
	src := `
	func f() {
		let x = 1
		func g() { return x }
		return [g() for x in [1, 2, 3]]
	}`
	code := compileSource(t, src, nil)
	fn := code.Child(0)
	require.Equal(t, 1, fn.RegionCount())
	region := fn.Region(0)
	require.Empty(t, region.SaveSlots)
	require.Len(t, region.Vars, 1)
	require.Equal(t, "x", region.Vars[0].Name)
	// x and g occupy the first two slots; the shadow slot is fresh
	require.Equal(t, uint16(2), region.Vars[0].Slot)
	require.Zero(t, countOpcode(fn, op.LoadFastAndClear))
	require.Equal(t, 1, countOpcode(fn, op.MakeCell))
}

// With no colliding local, the variable shadows into a fresh slot even
// inside a function.
func TestFunctionComprehensionShadowsFreshSlot(t *testing.T) {
	src := `
	func f() {
		return [n * 2 for n in [1, 2, 3]]
	}`
	code := compileSource(t, src, nil)
	fn := code.Child(0)
	require.Equal(t, 1, fn.RegionCount())
	region := fn.Region(0)
	require.Empty(t, region.SaveSlots)
	require.Len(t, region.Vars, 1)
	require.Equal(t, "n", region.Vars[0].Name)
	require.Zero(t, countOpcode(fn, op.LoadFastAndClear))
}

func TestNestedComprehensionRegions(t *testing.T) {
	code := compileSource(t, "[[x + y for y in [1, 2]] for x in [3, 4]]", nil)
	require.Equal(t, 2, code.RegionCount())
}

// A comprehension variable does not leak a binding into the enclosing
// scope.
func TestComprehensionVariableNotBoundAfter(t *testing.T) {
	err := compileError(t, "let out = [y for y in [1]]\ny")
	require.Contains(t, err.Error(), `undefined variable "y"`)
}

func TestConstantAsComprehensionVariable(t *testing.T) {
	src := `
	func f() {
		const k = 1
		return [k for k in [1, 2]]
	}`
	err := compileError(t, src)
	require.Contains(t, err.Error(), `cannot use constant "k" as a comprehension variable`)
}

func TestAssignToConstant(t *testing.T) {
	err := compileError(t, "const k = 1\nk = 2")
	require.Contains(t, err.Error(), `cannot assign to constant "k"`)
}

func TestUndefinedVariable(t *testing.T) {
	err := compileError(t, "x + 1")
	require.Contains(t, err.Error(), `undefined variable "x"`)
}

func TestBreakOutsideLoop(t *testing.T) {
	err := compileError(t, "break")
	require.Contains(t, err.Error(), "break outside of a loop")
}

func TestReturnOutsideFunction(t *testing.T) {
	err := compileError(t, "return 1")
	require.Contains(t, err.Error(), "invalid return statement outside of a function")
}

// A break that jumps out of a try block discards the try's handler, so
// the compiled loop carries one PopExcept for the normal path and one for
// the break path.
func TestBreakInsideTryPopsHandler(t *testing.T) {
	src := `
	for i in [1, 2, 3] {
		try {
			break
		} catch {}
	}`
	code := compileSource(t, src, nil)
	require.Equal(t, 2, countOpcode(code, op.PopExcept))
}

func TestTryRegistersHandler(t *testing.T) {
	src := `
	let r = 0
	try {
		r = 1
	} catch e {
		r = 2
	}`
	code := compileSource(t, src, nil)
	handlers := code.ExceptionHandlers()
	require.Len(t, handlers, 1)
	h := handlers[0]
	require.Less(t, h.TryStart, h.CatchStart)
	require.NotEqual(t, NoCatchVar, h.CatchVarIdx)
}

func TestCatchWithoutVariable(t *testing.T) {
	src := `
	try {
		1
	} catch {
		2
	}`
	code := compileSource(t, src, nil)
	require.Len(t, code.ExceptionHandlers(), 1)
	require.Equal(t, NoCatchVar, code.ExceptionHandlers()[0].CatchVarIdx)
}

func TestFunctionConstants(t *testing.T) {
	src := `
	func add(a, b) {
		return a + b
	}`
	code := compileSource(t, src, nil)
	var fn *Function
	for i := 0; i < code.ConstantsCount(); i++ {
		if f, ok := code.Constant(uint16(i)).(*Function); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Equal(t, "add", fn.Name())
	require.Equal(t, []string{"a", "b"}, fn.Parameters())
}

func TestInstructionLocations(t *testing.T) {
	code := compileSource(t, "let x = 1\nlet y = 2", nil)
	loc, ok := code.Location(0)
	require.True(t, ok)
	require.Equal(t, 1, loc.Line)
}
