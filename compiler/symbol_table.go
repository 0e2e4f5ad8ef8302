package compiler

import (
	"errors"
	"fmt"
	"math"
)

// Scope indicates where a resolved symbol is stored at runtime.
type Scope string

const (
	// Global scope: module-level variables, accessed via LoadGlobal/StoreGlobal.
	Global Scope = "global"
	// Local scope: function-local variables, accessed via LoadFast/StoreFast.
	Local Scope = "local"
	// Free scope: captured closure variables, accessed via LoadFree/StoreFree.
	Free Scope = "free"
)

// Symbol is a named entity in a symbol table, with an assigned slot index.
type Symbol struct {
	name        string
	index       uint16
	isConstant  bool
	regionLocal bool
	captured    bool
}

// Name of the symbol.
func (s *Symbol) Name() string {
	return s.name
}

// Index is the storage slot assigned to the symbol.
func (s *Symbol) Index() uint16 {
	return s.index
}

// IsConstant returns true if the symbol may not be reassigned.
func (s *Symbol) IsConstant() bool {
	return s.isConstant
}

// IsRegionLocal returns true if the symbol is a comprehension region binding.
// Region locals always live in frame slots, even at module scope.
func (s *Symbol) IsRegionLocal() bool {
	return s.regionLocal
}

// IsCaptured returns true if a nested function captures this symbol as a
// free variable. A captured symbol's slot is aliased by one or more cells.
func (s *Symbol) IsCaptured() bool {
	return s.captured
}

// Resolution describes how a symbol was resolved relative to a scope.
type Resolution struct {
	symbol    *Symbol
	scope     Scope
	depth     int
	freeIndex int
}

// Symbol that was resolved.
func (r *Resolution) Symbol() *Symbol {
	return r.symbol
}

// Scope of the resolved symbol.
func (r *Resolution) Scope() Scope {
	return r.scope
}

// FreeIndex is the index into the function's free variable list, for symbols
// with Free scope.
func (r *Resolution) FreeIndex() int {
	return r.freeIndex
}

// Depth is the number of function boundaries between the reference and the
// symbol's definition, for symbols with Free scope.
func (r *Resolution) Depth() int {
	return r.depth
}

// SymbolTable tracks which symbols are defined and referenced in a given scope.
// These tables may have a parent table, which indicates that they represent a
// nested scope. If "isBlock" is set to true, this table represents a block
// within a function (like inside an if { ... }), rather than a function itself.
// Note there may be more symbols in the symbols array than there are in
// symbolsByName, because symbols defined in nested blocks don't use a name
// in the enclosing table.
type SymbolTable struct {
	id            string
	parent        *SymbolTable
	children      []*SymbolTable
	symbolsByName map[string]*Symbol
	freeByName    map[string]*Resolution
	symbols       []*Symbol
	free          []*Resolution
	isBlock       bool
}

// NewSymbolTable returns a new root symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		id:            "root",
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
		symbols:       []*Symbol{},
	}
}

// NewChild creates a new symbol table that is a child of the current table.
func (t *SymbolTable) NewChild() *SymbolTable {
	child := &SymbolTable{
		id:            fmt.Sprintf("%s.%d", t.ID(), len(t.children)),
		parent:        t,
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
		symbols:       []*Symbol{},
		isBlock:       false,
	}
	t.children = append(t.children, child)
	return child
}

// NewBlock creates a new symbol table that is a child of the current table,
// and represents a block within a function. Blocks allocate symbol indexes
// from the enclosing function's symbol table.
func (t *SymbolTable) NewBlock() *SymbolTable {
	child := t.NewChild()
	child.isBlock = true
	return child
}

func (t *SymbolTable) ID() string {
	return t.id
}

func (t *SymbolTable) claimIndex(s *Symbol) (uint16, error) {
	if t.isBlock {
		return t.parent.claimIndex(s)
	}
	idx := len(t.symbols)
	if idx >= math.MaxUint16 {
		return 0, errors.New("compile error: too many symbols")
	}
	uidx := uint16(idx)
	t.symbols = append(t.symbols, s)
	s.index = uidx
	return uidx, nil
}

// ClaimSlot reserves an index slot without associating it with a name.
// The slot exists in the enclosing function's storage but is invisible to
// name lookups and introspection.
func (t *SymbolTable) ClaimSlot() (uint16, error) {
	if t.isBlock {
		return t.parent.ClaimSlot()
	}
	idx := len(t.symbols)
	if idx >= math.MaxUint16 {
		return 0, errors.New("compile error: too many symbols")
	}
	uidx := uint16(idx)
	// Append a nil placeholder - this slot exists but has no symbol
	t.symbols = append(t.symbols, nil)
	return uidx, nil
}

func (t *SymbolTable) GetFunction() (*SymbolTable, bool) {
	if t.parent == nil {
		return nil, false // global scope
	} else if t.isBlock {
		return t.parent.GetFunction()
	}
	return t, true
}

func (t *SymbolTable) GetFunctionID() (string, bool) {
	if t.parent == nil {
		return "", false
	} else if t.isBlock {
		return t.parent.GetFunctionID()
	}
	return t.ID(), true
}

func (t *SymbolTable) FunctionDepth() int {
	if t.parent == nil {
		return 0
	}
	if t.isBlock {
		return t.parent.FunctionDepth()
	}
	return 1 + t.parent.FunctionDepth()
}

// InsertVariable adds a new variable into this symbol table. The symbol will
// be assigned the next available index in the enclosing function.
func (t *SymbolTable) InsertVariable(name string) (*Symbol, error) {
	if _, ok := t.symbolsByName[name]; ok {
		return nil, fmt.Errorf("compile error: variable %q already exists", name)
	}
	s := &Symbol{name: name}
	if _, err := t.claimIndex(s); err != nil {
		return nil, err
	}
	t.symbolsByName[name] = s
	return s, nil
}

// InsertConstant adds a new constant into this symbol table. The symbol will
// be assigned the next available index in the enclosing function.
func (t *SymbolTable) InsertConstant(name string) (*Symbol, error) {
	sym, err := t.InsertVariable(name)
	if err != nil {
		return nil, err
	}
	sym.isConstant = true
	return sym, nil
}

// InsertShadow adds a region-local binding for the given name. The slot is
// claimed anonymously from the enclosing function, so the name is visible
// only through this table, and the slot is hidden from introspection. The
// binding lexically shadows any same-named variable in an enclosing scope.
func (t *SymbolTable) InsertShadow(name string) (*Symbol, error) {
	if _, ok := t.symbolsByName[name]; ok {
		return nil, fmt.Errorf("compile error: variable %q already exists", name)
	}
	idx, err := t.ClaimSlot()
	if err != nil {
		return nil, err
	}
	s := &Symbol{name: name, index: idx, regionLocal: true}
	t.symbolsByName[name] = s
	return s, nil
}

// IsDefined returns true if the specified symbol is defined in this table.
// Does not check any parent tables.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.symbolsByName[name]
	return ok
}

// Get returns the symbol with the specified name and a boolean indicating
// whether the symbol was found. Does not check any parent tables.
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.symbolsByName[name]
	return s, ok
}

// IsGlobal returns true if this table represents the top-level scope.
// In other words, this checks if the table has no parent.
func (t *SymbolTable) IsGlobal() bool {
	if t.parent == nil {
		return true
	}
	if t.isBlock {
		return t.parent.IsGlobal()
	}
	return false
}

// Resolve the specified symbol in this table or any parent tables, returning
// a Resolution if the symbol is found. The Resolution indicates the symbol's
// relative scope and depth. If the symbol is found to be a "free" variable,
// it will be added to the free map for this table.
func (t *SymbolTable) Resolve(name string) (*Resolution, bool) {
	// Access the enclosing function, if any
	activeFunc, inFunc := t.GetFunction()
	var activeFuncID string
	if activeFunc != nil {
		activeFuncID = activeFunc.ID()
	}
	// Check if the symbol is defined directly in this table
	if s, ok := t.symbolsByName[name]; ok {
		var scope Scope
		if t.IsGlobal() && !s.regionLocal {
			scope = Global
		} else {
			scope = Local
		}
		return &Resolution{symbol: s, scope: scope}, true
	}
	// Check if the symbol was previously found to be a "free" variable
	if rs, ok := t.freeByName[name]; ok {
		return rs, true
	}
	// At this point, if there is no parent then the symbol is undefined
	if t.parent == nil {
		return nil, false
	}
	// Search ancestors for the symbol
	ancestor := t
	for {
		ancestor = ancestor.parent
		if ancestor == nil {
			// Symbol is undefined in all ancestors
			return nil, false
		}
		ancestorFuncID, _ := ancestor.GetFunctionID()
		if sym, ok := ancestor.symbolsByName[name]; ok {
			if ancestor.IsGlobal() && !sym.regionLocal {
				// Global variable
				return &Resolution{symbol: sym, scope: Global}, true
			}
			if (inFunc && ancestorFuncID == activeFuncID) || ancestor.IsGlobal() {
				// Local variable (including module frame region locals)
				return &Resolution{symbol: sym, scope: Local}, true
			}
			// Free variable
			sym.captured = true
			depth := t.FunctionDepth() - ancestor.FunctionDepth()
			freeIndex := len(activeFunc.free)
			rs := &Resolution{symbol: sym, scope: Free, depth: depth, freeIndex: freeIndex}
			activeFunc.freeByName[name] = rs
			activeFunc.free = append(activeFunc.free, rs)
			return rs, true
		}
	}
}

// Classify determines how the given name would resolve from this scope,
// without recording a free variable capture. This is the binding-class
// lookup used by the comprehension scope resolver: capturing a cell just to
// classify a name would force a closure conversion that the comprehension
// then shadows away.
func (t *SymbolTable) Classify(name string) (Scope, bool) {
	_, inFunc := t.GetFunction()
	var activeFuncID string
	if inFunc {
		activeFuncID, _ = t.GetFunctionID()
	}
	current := t
	for current != nil {
		if sym, ok := current.symbolsByName[name]; ok {
			if current.IsGlobal() && !sym.regionLocal {
				return Global, true
			}
			currentFuncID, _ := current.GetFunctionID()
			if (inFunc && currentFuncID == activeFuncID) || current.IsGlobal() {
				return Local, true
			}
			return Free, true
		}
		if _, ok := current.freeByName[name]; ok {
			return Free, true
		}
		current = current.parent
	}
	return "", false
}

// Parent returns the parent table of this table, if any.
func (t *SymbolTable) Parent() *SymbolTable {
	return t.parent
}

// Root returns the outermost table that encloses this table.
func (t *SymbolTable) Root() *SymbolTable {
	current := t
	for current.parent != nil {
		current = current.parent
	}
	return current
}

// LocalTable returns the table that defines the local variables for this table.
// This is useful to find the enclosing function when in a block.
func (t *SymbolTable) LocalTable() *SymbolTable {
	current := t
	for current.isBlock {
		current = current.parent
	}
	return current
}

// Count returns the number of symbols defined in this table.
func (t *SymbolTable) Count() uint16 {
	return uint16(len(t.symbols))
}

// Symbol returns the Symbol located at the specified index. Anonymous claimed
// slots return nil.
func (t *SymbolTable) Symbol(index uint16) *Symbol {
	return t.symbols[index]
}

// FreeCount returns the number of free variables defined in this table.
func (t *SymbolTable) FreeCount() uint16 {
	return uint16(len(t.free))
}

// Free returns the free variable Resolution located at the specified index.
func (t *SymbolTable) Free(index uint16) *Resolution {
	return t.free[index]
}
