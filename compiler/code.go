package compiler

import (
	"fmt"

	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/op"
)

// loop tracks jump patch-up state for one loop being compiled.
type loop struct {
	// start is the position of the loop's ForIter instruction, the target
	// of back edges.
	start int
	// breakPos records the positions of JumpForward placeholders emitted for
	// break statements, patched to the loop's end.
	breakPos []int
	// tryDepth is the number of enclosing try blocks at loop entry. Break and
	// continue statements inside the loop emit one PopExcept per try block
	// entered since, so that jumping out does not leak exception handlers.
	tryDepth int
}

// ExceptionHandler describes one try/catch range within a code object.
// Instruction offsets are expressed in op.Code units.
type ExceptionHandler struct {
	// TryStart is the offset of the first instruction in the try block.
	TryStart uint16
	// TryEnd is the offset just past the last instruction in the try block.
	TryEnd uint16
	// CatchStart is the offset of the first instruction in the catch block.
	CatchStart uint16
	// CatchVarIdx is the local slot that receives the error object, or
	// NoCatchVar when the catch clause names no variable.
	CatchVarIdx uint16
}

// NoCatchVar indicates a catch clause with no bound error variable.
const NoCatchVar = uint16(0xFFFF)

// RegionVar is a variable bound inside an inlined comprehension region,
// with the frame slot that holds it while the region is active.
type RegionVar struct {
	Name string
	Slot uint16
}

// InlinedRegion describes one inlined comprehension within a code object.
// SaveSlots lists the frame slots whose values are saved at region entry and
// restored at region exit, in declaration order. Vars lists the bindings the
// region introduces, for locals() reporting while the region is active.
type InlinedRegion struct {
	SaveSlots []uint16
	Vars      []RegionVar
}

// Code is a compiled unit of code.
type Code struct {
	id           string
	name         string
	isNamed      bool
	parent       *Code
	children     []*Code
	symbols      *SymbolTable
	instructions []op.Code
	constants    []any
	regions      []*InlinedRegion
	source       string
	functionID   string
	filename     string
	locations    []errz.SourceLocation
	maxCallArgs  int
	handlers     []*ExceptionHandler
	loops        []*loop
	tryDepth     int
}

// ID returns a unique identifier for this code.
func (c *Code) ID() string {
	return c.id
}

// Name of the code, which is the function name for function code and "__main__"
// for the root code of a program.
func (c *Code) Name() string {
	return c.name
}

// FunctionID returns the ID of the function that this code belongs to, if any.
func (c *Code) FunctionID() string {
	return c.functionID
}

// Filename returns the name of the file from which this code was compiled.
func (c *Code) Filename() string {
	return c.filename
}

// Source code text from which this code was compiled.
func (c *Code) Source() string {
	return c.source
}

// Instruction returns the instruction at the given offset.
func (c *Code) Instruction(offset uint16) op.Code {
	return c.instructions[offset]
}

// InstructionCount returns the number of instructions in this code.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// Constant returns the constant at the given index.
func (c *Code) Constant(index uint16) any {
	return c.constants[index]
}

// ConstantsCount returns the number of constants defined in this code.
func (c *Code) ConstantsCount() int {
	return len(c.constants)
}

// Parent returns the parent code of this code, if any.
func (c *Code) Parent() *Code {
	return c.parent
}

// Child returns the child code at the given index.
func (c *Code) Child(index int) *Code {
	return c.children[index]
}

// ChildCount returns the number of child code objects directly below this one.
func (c *Code) ChildCount() int {
	return len(c.children)
}

// IsRoot returns true if this is the root code of a compiled program.
func (c *Code) IsRoot() bool {
	return c.parent == nil
}

// IsNamed returns true if this code has been given a name.
func (c *Code) IsNamed() bool {
	return c.isNamed
}

// Symbols returns the symbol table for this code.
func (c *Code) Symbols() *SymbolTable {
	return c.symbols
}

// LocalsCount returns the number of local variable slots used by this code.
func (c *Code) LocalsCount() int {
	return int(c.symbols.Count())
}

// GlobalsCount returns the number of global slots used by this code.
func (c *Code) GlobalsCount() int {
	return int(c.symbols.Count())
}

// GlobalNames returns the names of all global slots used by this code.
// Anonymous slots yield an empty string.
func (c *Code) GlobalNames() []string {
	count := c.symbols.Count()
	names := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		sym := c.symbols.Symbol(i)
		if sym == nil {
			names = append(names, "")
		} else {
			names = append(names, sym.Name())
		}
	}
	return names
}

// MaxCallArgs returns the maximum number of arguments used in any function
// call within this code.
func (c *Code) MaxCallArgs() int {
	return c.maxCallArgs
}

// ExceptionHandlers returns the try/catch ranges registered in this code.
func (c *Code) ExceptionHandlers() []*ExceptionHandler {
	return c.handlers
}

// ExceptionHandler returns the handler at the given index.
func (c *Code) ExceptionHandler(index uint16) *ExceptionHandler {
	return c.handlers[index]
}

// AddExceptionHandler registers a handler and returns its index.
func (c *Code) AddExceptionHandler(h *ExceptionHandler) uint16 {
	c.handlers = append(c.handlers, h)
	return uint16(len(c.handlers) - 1)
}

// Region returns the inlined comprehension region at the given index.
func (c *Code) Region(index uint16) *InlinedRegion {
	return c.regions[index]
}

// RegionCount returns the number of inlined comprehension regions in this code.
func (c *Code) RegionCount() int {
	return len(c.regions)
}

// AddRegion registers an inlined region and returns its index.
func (c *Code) AddRegion(r *InlinedRegion) uint16 {
	c.regions = append(c.regions, r)
	return uint16(len(c.regions) - 1)
}

// Location returns the source location for the instruction at the given
// offset, along with a boolean indicating whether a location is known.
func (c *Code) Location(offset uint16) (errz.SourceLocation, bool) {
	if int(offset) >= len(c.locations) {
		return errz.SourceLocation{}, false
	}
	loc := c.locations[offset]
	if loc.IsZero() {
		return errz.SourceLocation{}, false
	}
	return loc, true
}

// newChild creates a code object for a function compiled within this one.
func (c *Code) newChild(name, source, functionID string) *Code {
	child := &Code{
		id:         fmt.Sprintf("%s.%d", c.id, len(c.children)),
		name:       name,
		isNamed:    name != "",
		parent:     c,
		symbols:    c.symbols.NewChild(),
		source:     source,
		functionID: functionID,
		filename:   c.filename,
	}
	c.children = append(c.children, child)
	return child
}

// Flatten returns the given code and all its descendants as a flat slice.
// Comprehensions contribute nothing here since they compile into their
// enclosing code rather than into children.
func (c *Code) Flatten() []*Code {
	result := []*Code{c}
	for _, child := range c.children {
		result = append(result, child.Flatten()...)
	}
	return result
}
