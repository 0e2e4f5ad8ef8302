package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	table := NewSymbolTable()
	sym, err := table.InsertVariable("x")
	require.NoError(t, err)
	require.Equal(t, "x", sym.Name())
	require.Equal(t, uint16(0), sym.Index())
	require.False(t, sym.IsConstant())

	got, ok := table.Get("x")
	require.True(t, ok)
	require.Same(t, sym, got)

	_, err = table.InsertVariable("x")
	require.Error(t, err)
}

func TestInsertConstant(t *testing.T) {
	table := NewSymbolTable()
	sym, err := table.InsertConstant("k")
	require.NoError(t, err)
	require.True(t, sym.IsConstant())
}

func TestResolveGlobal(t *testing.T) {
	root := NewSymbolTable()
	_, err := root.InsertVariable("g")
	require.NoError(t, err)

	resolution, ok := root.Resolve("g")
	require.True(t, ok)
	require.Equal(t, Global, resolution.Scope())

	fn := root.NewChild()
	resolution, ok = fn.Resolve("g")
	require.True(t, ok)
	require.Equal(t, Global, resolution.Scope())
}

func TestResolveLocal(t *testing.T) {
	root := NewSymbolTable()
	fn := root.NewChild()
	_, err := fn.InsertVariable("x")
	require.NoError(t, err)

	resolution, ok := fn.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Local, resolution.Scope())

	// Blocks within the function still resolve to the function's slot
	block := fn.NewBlock()
	resolution, ok = block.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Local, resolution.Scope())
}

func TestResolveFree(t *testing.T) {
	root := NewSymbolTable()
	outer := root.NewChild()
	_, err := outer.InsertVariable("x")
	require.NoError(t, err)
	inner := outer.NewChild()

	resolution, ok := inner.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Free, resolution.Scope())
	require.Equal(t, 1, resolution.Depth())
	require.Equal(t, 0, resolution.FreeIndex())

	// The capture is recorded on the inner function
	require.Equal(t, uint16(1), inner.FreeCount())
	require.Same(t, resolution, inner.Free(0))

	// Resolving again reuses the recorded capture
	again, ok := inner.Resolve("x")
	require.True(t, ok)
	require.Same(t, resolution, again)
	require.Equal(t, uint16(1), inner.FreeCount())
}

// Recording a free-variable capture marks the defining symbol as captured,
// so later scope queries see that its slot is aliased by a cell.
func TestResolveMarksCaptured(t *testing.T) {
	root := NewSymbolTable()
	outer := root.NewChild()
	sym, err := outer.InsertVariable("x")
	require.NoError(t, err)
	require.False(t, sym.IsCaptured())

	inner := outer.NewChild()
	_, ok := inner.Resolve("x")
	require.True(t, ok)
	require.True(t, sym.IsCaptured())

	// Classify alone does not capture
	other, err := outer.InsertVariable("y")
	require.NoError(t, err)
	scope, ok := inner.Classify("y")
	require.True(t, ok)
	require.Equal(t, Free, scope)
	require.False(t, other.IsCaptured())
}

func TestResolveUndefined(t *testing.T) {
	root := NewSymbolTable()
	fn := root.NewChild()
	_, ok := fn.Resolve("missing")
	require.False(t, ok)
}

// Classify reports the binding class without recording a capture, so a
// shadowing decision does not force closure conversion.
func TestClassify(t *testing.T) {
	root := NewSymbolTable()
	_, err := root.InsertVariable("g")
	require.NoError(t, err)
	outer := root.NewChild()
	_, err = outer.InsertVariable("x")
	require.NoError(t, err)
	inner := outer.NewChild()

	scope, ok := inner.Classify("g")
	require.True(t, ok)
	require.Equal(t, Global, scope)

	scope, ok = outer.Classify("x")
	require.True(t, ok)
	require.Equal(t, Local, scope)

	scope, ok = inner.Classify("x")
	require.True(t, ok)
	require.Equal(t, Free, scope)
	require.Equal(t, uint16(0), inner.FreeCount())

	_, ok = inner.Classify("missing")
	require.False(t, ok)
}

func TestClaimSlot(t *testing.T) {
	table := NewSymbolTable()
	_, err := table.InsertVariable("a")
	require.NoError(t, err)
	idx, err := table.ClaimSlot()
	require.NoError(t, err)
	require.Equal(t, uint16(1), idx)
	require.Equal(t, uint16(2), table.Count())
	require.Nil(t, table.Symbol(idx))
}

// Shadow bindings are region locals: they resolve by name through the
// declaring table but occupy anonymous slots, and at module scope they
// still resolve as Local so that they live in frame slots.
func TestInsertShadow(t *testing.T) {
	root := NewSymbolTable()
	_, err := root.InsertVariable("x")
	require.NoError(t, err)

	block := root.NewBlock()
	sym, err := block.InsertShadow("x")
	require.NoError(t, err)
	require.True(t, sym.IsRegionLocal())
	require.Equal(t, uint16(1), sym.Index())
	require.Nil(t, root.Symbol(sym.Index()))

	resolution, ok := block.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Local, resolution.Scope())
	require.Same(t, sym, resolution.Symbol())

	// Outside the block the name still refers to the original global
	resolution, ok = root.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Global, resolution.Scope())
	require.Equal(t, uint16(0), resolution.Symbol().Index())
}

func TestBlocksShareFunctionSlots(t *testing.T) {
	root := NewSymbolTable()
	fn := root.NewChild()
	_, err := fn.InsertVariable("a")
	require.NoError(t, err)
	block := fn.NewBlock()
	sym, err := block.InsertVariable("b")
	require.NoError(t, err)
	require.Equal(t, uint16(1), sym.Index())
	require.Equal(t, uint16(2), fn.Count())
}

func TestIsGlobal(t *testing.T) {
	root := NewSymbolTable()
	require.True(t, root.IsGlobal())
	require.True(t, root.NewBlock().IsGlobal())
	fn := root.NewChild()
	require.False(t, fn.IsGlobal())
	require.False(t, fn.NewBlock().IsGlobal())
}

func TestFunctionDepth(t *testing.T) {
	root := NewSymbolTable()
	require.Equal(t, 0, root.FunctionDepth())
	fn := root.NewChild()
	require.Equal(t, 1, fn.FunctionDepth())
	require.Equal(t, 1, fn.NewBlock().FunctionDepth())
	require.Equal(t, 2, fn.NewChild().FunctionDepth())
}
