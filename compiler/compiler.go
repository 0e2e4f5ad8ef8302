// Package compiler is used to compile a Quill abstract syntax tree (AST) into
// the corresponding bytecode.
//
// # Two-Pass Compilation Strategy
//
// The compiler uses a two-pass approach to handle forward references. This
// allows functions to call other functions that are defined later in the source.
//
// Pass 1: collectFunctionDeclarations walks the AST to find all named function
// declarations at the module (global) scope and registers them in the symbol
// table as constants, so their names resolve during the second pass.
//
// Pass 2: compile recursively compiles each AST node into bytecode.
//
// # Symbol Scopes
//
// The compiler tracks three variable scopes:
//
//   - Global: Module-level variables, accessed via LoadGlobal/StoreGlobal
//   - Local: Function-local variables, accessed via LoadFast/StoreFast
//   - Free: Captured closure variables, accessed via LoadFree/StoreFree
//
// The symbol table handles scope resolution and tracks which local variables
// are captured by nested functions (free variables). When a function references
// a variable from an enclosing scope, the compiler emits MakeCell instructions
// to capture the variable into the closure.
//
// # Comprehension Inlining
//
// List, set, and map comprehensions compile into the enclosing code object
// rather than into a function of their own. No callable is allocated and no
// frame is pushed at runtime. Each comprehension becomes a bracketed region
// of instructions (BeginRegion/EndRegion) plus a table entry describing which
// local slots the region borrows. A slot already holding a local variable of
// the enclosing function has its value saved on the stack at region entry
// (LoadFastAndClear) and written back at region exit (StoreFast), so the
// enclosing binding is invisible inside the region and untouched after it.
// Names that resolve to globals, captured cells, or module-level bindings get
// fresh anonymously-claimed slots instead, so those outer bindings are never
// written at all.
package compiler

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/op"
	"github.com/quill-lang/quill/token"
)

const (
	// MaxArgs is the maximum number of arguments a function can have.
	MaxArgs = 255

	// Placeholder is a temporary value written during compilation, which is
	// always replaced before compilation is complete.
	Placeholder = uint16(math.MaxUint16)
)

// Compiler is used to compile Quill AST into its corresponding bytecode.
type Compiler struct {
	// The entrypoint code we are compiling. This remains fixed throughout
	// the compilation process.
	main *Code

	// The current code we are compiling into. This changes as we enter
	// and leave functions.
	current *Code

	// Set on a compilation error
	failure error

	// Names of globals to be available during compilation
	globalNames []string

	// Increments with each function compiled
	funcIndex int

	// Source filename
	filename string

	// Original source code (for better error messages)
	source string

	// Current AST node being compiled (used for source map tracking)
	currentNode ast.Node
}

// Config holds compiler configuration options.
type Config struct {
	// GlobalNames are the names of global variables available during
	// compilation. These are typically the keys from the environment map
	// passed to the VM.
	GlobalNames []string

	// Filename is the source filename, used for error messages.
	Filename string

	// Source is the original source code, used for better error messages.
	Source string

	// Code is an existing code object to compile into. This is used for
	// REPL-style incremental compilation where state must be preserved.
	// If nil, a new code object is created.
	Code *Code
}

// Compile compiles the given AST node and returns the resulting code.
// Pass nil for cfg to use default settings.
func Compile(node ast.Node, cfg *Config) (*Code, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.CompileAST(node)
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) (*Compiler, error) {
	c := &Compiler{}
	if cfg != nil {
		c.globalNames = make([]string, len(cfg.GlobalNames))
		copy(c.globalNames, cfg.GlobalNames) // isolate from caller
		c.filename = cfg.Filename
		c.source = cfg.Source
		c.main = cfg.Code
	}
	// Create a default, empty code object to compile into if the caller
	// didn't supply one. A supplied code object is used in situations like
	// the REPL, where compilation happens incrementally.
	if c.main == nil {
		c.main = &Code{
			id:      "__main__",
			name:    "__main__",
			symbols: NewSymbolTable(),
		}
	}
	// Insert any supplied names for globals into the symbol table
	sort.Strings(c.globalNames)
	for _, name := range c.globalNames {
		if c.main.symbols.IsDefined(name) {
			continue
		}
		if _, err := c.main.symbols.InsertVariable(name); err != nil {
			return nil, err
		}
	}
	// Start compiling into the main code object
	c.current = c.main
	return c, nil
}

// Code returns the compiled code for the entrypoint.
func (c *Compiler) Code() *Code {
	return c.main
}

// CompileAST compiles the given AST node and returns the mutable Code object.
// This may be called multiple times on the same Compiler to compile
// incrementally, as in a REPL.
func (c *Compiler) CompileAST(node ast.Node) (*Code, error) {
	c.failure = nil

	nodeSource := c.source
	if nodeSource == "" {
		nodeSource = node.String()
	}
	if c.main.source == "" {
		c.main.source = nodeSource
	} else {
		c.main.source = fmt.Sprintf("%s\n%s", c.main.source, nodeSource)
	}
	if c.filename != "" {
		c.main.filename = c.filename
	}

	// First pass: collect function declarations to allow forward references
	if err := c.collectFunctionDeclarations(node); err != nil {
		return nil, err
	}

	// Second pass: actual compilation
	if err := c.compile(node); err != nil {
		return nil, err
	}
	// Check for failures that happened that aren't propagated up the call
	// stack. Some errors are difficult to propagate without bloating the code.
	if c.failure != nil {
		return nil, c.failure
	}
	return c.main, nil
}

// collectFunctionDeclarations walks the AST and registers all top-level named
// function declarations, allowing forward references between them.
func (c *Compiler) collectFunctionDeclarations(node ast.Node) error {
	switch node := node.(type) {
	case *ast.Program:
		for _, stmt := range node.Stmts {
			if err := c.collectFunctionDeclarations(stmt); err != nil {
				return err
			}
		}
	case *ast.Func:
		if node.Name != nil && c.current.parent == nil {
			functionName := node.Name.Name
			if _, found := c.current.symbols.Get(functionName); found {
				return c.formatError(fmt.Sprintf("function %q redefined", functionName), node.Pos())
			}
			if _, err := c.current.symbols.InsertConstant(functionName); err != nil {
				return err
			}
		}
	}
	return nil
}

// compile the given AST node and all its children.
func (c *Compiler) compile(node ast.Node) error {
	// Track the current node for source location mapping
	c.currentNode = node
	switch node := node.(type) {
	case *ast.Nil:
		c.emit(op.Nil)
	case *ast.Int:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Float:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.String:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Bool:
		if node.Value {
			c.emit(op.True)
		} else {
			c.emit(op.False)
		}
	case *ast.Ident:
		return c.compileIdent(node)
	case *ast.Prefix:
		return c.compilePrefix(node)
	case *ast.Infix:
		return c.compileInfix(node)
	case *ast.Call:
		return c.compileCall(node)
	case *ast.Index:
		return c.compileIndex(node)
	case *ast.List:
		return c.compileList(node)
	case *ast.Map:
		return c.compileMap(node)
	case *ast.Set:
		return c.compileSet(node)
	case *ast.Comprehension:
		return c.compileComprehension(node)
	case *ast.Func:
		return c.compileFunc(node)
	case *ast.Program:
		return c.compileProgram(node)
	case *ast.Block:
		return c.compileBlock(node)
	case *ast.Let:
		return c.compileLet(node)
	case *ast.Const:
		return c.compileConst(node)
	case *ast.Assign:
		return c.compileAssign(node)
	case *ast.If:
		return c.compileIf(node)
	case *ast.For:
		return c.compileFor(node)
	case *ast.Break:
		return c.compileBreak(node)
	case *ast.Continue:
		return c.compileContinue(node)
	case *ast.Return:
		return c.compileReturn(node)
	case *ast.Try:
		return c.compileTry(node)
	case *ast.Throw:
		return c.compileThrow(node)
	case *ast.BadExpr:
		return c.formatError("syntax error in expression", node.Pos())
	case *ast.BadStmt:
		return c.formatError("syntax error in statement", node.Pos())
	default:
		panic(fmt.Sprintf("compile error: unknown ast node type: %T", node))
	}
	return nil
}

func (c *Compiler) currentPosition() int {
	return len(c.current.instructions)
}

// leavesValue returns true if compiling the given node leaves a value on
// the stack. If and try statements compile blocks, which always produce a
// value, so they count alongside expressions.
func leavesValue(node ast.Node) bool {
	switch node.(type) {
	case ast.Expr, *ast.If, *ast.Try:
		return true
	}
	return false
}

func (c *Compiler) compileProgram(node *ast.Program) error {
	statements := node.Stmts
	count := len(statements)
	if count == 0 {
		// Guarantee that the program evaluates to a value
		c.emit(op.Nil)
	} else {
		for i, stmt := range statements {
			if err := c.compile(stmt); err != nil {
				return err
			}
			if i < count-1 {
				if leavesValue(stmt) {
					c.emit(op.PopTop)
				}
			}
		}
		// Guarantee that the program evaluates to a value
		lastStatement := statements[count-1]
		if !leavesValue(lastStatement) {
			c.emit(op.Nil)
		}
	}
	return nil
}

func (c *Compiler) compileBlock(node *ast.Block) error {
	code := c.current
	code.symbols = code.symbols.NewBlock()
	defer func() {
		code.symbols = code.symbols.parent
	}()
	statements := node.Stmts
	count := len(statements)
	if count == 0 {
		// Guarantee that the block evaluates to a value
		c.emit(op.Nil)
	} else {
		for i, stmt := range statements {
			if err := c.compile(stmt); err != nil {
				return err
			}
			if i < count-1 {
				if leavesValue(stmt) {
					c.emit(op.PopTop)
				}
			}
		}
		// Guarantee that the block evaluates to a value
		lastStatement := statements[count-1]
		if !leavesValue(lastStatement) {
			c.emit(op.Nil)
		}
	}
	return nil
}

func (c *Compiler) compileFunctionBlock(node *ast.Block) error {
	code := c.current
	code.symbols = code.symbols.NewBlock()
	defer func() {
		code.symbols = code.symbols.parent
	}()
	statements := normalizeFunctionBlock(node)
	count := len(statements)
	for i, stmt := range statements {
		if err := c.compile(stmt); err != nil {
			return err
		}
		if i < count-1 {
			if leavesValue(stmt) {
				c.emit(op.PopTop)
			}
		}
	}
	// An if or try in tail position supplies the return value directly
	if _, ok := statements[count-1].(*ast.Return); !ok {
		c.emit(op.ReturnValue)
	}
	return nil
}

func (c *Compiler) compileLet(node *ast.Let) error {
	if err := c.compile(node.Value); err != nil {
		return err
	}
	sym, err := c.current.symbols.InsertVariable(node.Name.Name)
	if err != nil {
		return c.formatError(err.Error(), node.Pos())
	}
	if c.current.symbols.IsGlobal() {
		c.emit(op.StoreGlobal, sym.Index())
	} else {
		c.emit(op.StoreFast, sym.Index())
	}
	return nil
}

func (c *Compiler) compileConst(node *ast.Const) error {
	if err := c.compile(node.Value); err != nil {
		return err
	}
	sym, err := c.current.symbols.InsertConstant(node.Name.Name)
	if err != nil {
		return c.formatError(err.Error(), node.Pos())
	}
	if c.current.symbols.IsGlobal() {
		c.emit(op.StoreGlobal, sym.Index())
	} else {
		c.emit(op.StoreFast, sym.Index())
	}
	return nil
}

func (c *Compiler) compileIdent(node *ast.Ident) error {
	resolution, found := c.current.symbols.Resolve(node.Name)
	if !found {
		return c.formatError(fmt.Sprintf("undefined variable %q", node.Name), node.Pos())
	}
	c.emitLoad(resolution)
	return nil
}

func (c *Compiler) compileAssign(node *ast.Assign) error {
	if node.Index != nil {
		return c.compileSetItem(node)
	}
	name := node.Name.Name
	resolution, found := c.current.symbols.Resolve(name)
	if !found {
		return c.formatError(fmt.Sprintf("undefined variable %q", name), node.Pos())
	}
	if resolution.symbol.IsConstant() {
		return c.formatError(fmt.Sprintf("cannot assign to constant %q", name), node.Pos())
	}
	if node.Op == "=" {
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emitStore(resolution)
		return nil
	}
	// Push LHS as TOS
	c.emitLoad(resolution)
	// Push RHS as TOS
	if err := c.compile(node.Value); err != nil {
		return err
	}
	// Result becomes TOS
	switch node.Op {
	case "+=":
		c.emit(op.BinaryOp, uint16(op.Add))
	case "-=":
		c.emit(op.BinaryOp, uint16(op.Subtract))
	case "*=":
		c.emit(op.BinaryOp, uint16(op.Multiply))
	case "/=":
		c.emit(op.BinaryOp, uint16(op.Divide))
	default:
		return c.formatError(fmt.Sprintf("unknown assignment operator %q", node.Op), node.Pos())
	}
	// Store TOS in LHS
	c.emitStore(resolution)
	return nil
}

func (c *Compiler) compileSetItem(node *ast.Assign) error {
	index := node.Index

	// Compound operators load the current element value first
	if node.Op != "=" {
		if err := c.compile(index.X); err != nil {
			return err
		}
		if err := c.compile(index.Index); err != nil {
			return err
		}
		c.emit(op.BinarySubscr)
		if err := c.compile(node.Value); err != nil {
			return err
		}
		switch node.Op {
		case "+=":
			c.emit(op.BinaryOp, uint16(op.Add))
		case "-=":
			c.emit(op.BinaryOp, uint16(op.Subtract))
		case "*=":
			c.emit(op.BinaryOp, uint16(op.Multiply))
		case "/=":
			c.emit(op.BinaryOp, uint16(op.Divide))
		default:
			return c.formatError(fmt.Sprintf("unknown assignment operator %q", node.Op), node.Pos())
		}
	} else {
		if err := c.compile(node.Value); err != nil {
			return err
		}
	}

	// Store the result back
	if err := c.compile(index.X); err != nil {
		return err
	}
	if err := c.compile(index.Index); err != nil {
		return err
	}
	c.emit(op.StoreSubscr)
	return nil
}

func (c *Compiler) compilePrefix(node *ast.Prefix) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	switch node.Op {
	case "!":
		c.emit(op.UnaryNot)
	case "-":
		c.emit(op.UnaryNegative)
	default:
		return c.formatError(fmt.Sprintf("unknown prefix operator %q", node.Op), node.Pos())
	}
	return nil
}

func (c *Compiler) compileInfix(node *ast.Infix) error {
	operator := node.Op
	// Short-circuit operators
	if operator == "&&" {
		return c.compileAnd(node)
	} else if operator == "||" {
		return c.compileOr(node)
	}
	// Non-short-circuit operators
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	switch operator {
	case "+":
		c.emit(op.BinaryOp, uint16(op.Add))
	case "-":
		c.emit(op.BinaryOp, uint16(op.Subtract))
	case "*":
		c.emit(op.BinaryOp, uint16(op.Multiply))
	case "/":
		c.emit(op.BinaryOp, uint16(op.Divide))
	case "%":
		c.emit(op.BinaryOp, uint16(op.Modulo))
	case "**":
		c.emit(op.BinaryOp, uint16(op.Power))
	case ">":
		c.emit(op.CompareOp, uint16(op.GreaterThan))
	case ">=":
		c.emit(op.CompareOp, uint16(op.GreaterThanOrEqual))
	case "<":
		c.emit(op.CompareOp, uint16(op.LessThan))
	case "<=":
		c.emit(op.CompareOp, uint16(op.LessThanOrEqual))
	case "==":
		c.emit(op.CompareOp, uint16(op.Equal))
	case "!=":
		c.emit(op.CompareOp, uint16(op.NotEqual))
	default:
		return c.formatError(fmt.Sprintf("unknown operator %q", node.Op), node.Pos())
	}
	return nil
}

func (c *Compiler) compileAnd(node *ast.Infix) error {
	// The "&&" AND operator needs to have "short circuit" behavior
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.Copy, 0) // Duplicate LHS
	jumpPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compile(node.Y); err != nil {
		return err
	}
	c.emit(op.BinaryOp, uint16(op.And))
	c.emit(op.Nop)
	delta, err := c.calculateDelta(jumpPos)
	if err != nil {
		return err
	}
	c.changeOperand(jumpPos, delta)
	return nil
}

func (c *Compiler) compileOr(node *ast.Infix) error {
	// The "||" OR operator needs to have "short circuit" behavior
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.Copy, 0) // Duplicate LHS
	jumpPos := c.emit(op.PopJumpForwardIfTrue, Placeholder)
	if err := c.compile(node.Y); err != nil {
		return err
	}
	c.emit(op.BinaryOp, uint16(op.Or))
	c.emit(op.Nop)
	delta, err := c.calculateDelta(jumpPos)
	if err != nil {
		return err
	}
	c.changeOperand(jumpPos, delta)
	return nil
}

func (c *Compiler) compileCall(node *ast.Call) error {
	argc := len(node.Args)
	if argc > MaxArgs {
		return fmt.Errorf("compile error: max args limit of %d exceeded (got %d)", MaxArgs, argc)
	}
	if err := c.compile(node.Fun); err != nil {
		return err
	}
	for _, arg := range node.Args {
		if err := c.compile(arg); err != nil {
			return err
		}
	}
	c.emit(op.Call, uint16(argc))
	return nil
}

func (c *Compiler) compileIndex(node *ast.Index) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Index); err != nil {
		return err
	}
	c.emit(op.BinarySubscr)
	return nil
}

func (c *Compiler) compileList(node *ast.List) error {
	count := len(node.Items)
	if count > math.MaxUint16 {
		return fmt.Errorf("compile error: list literal exceeds max size")
	}
	for _, expr := range node.Items {
		if err := c.compile(expr); err != nil {
			return err
		}
	}
	c.emit(op.BuildList, uint16(count))
	return nil
}

func (c *Compiler) compileMap(node *ast.Map) error {
	count := len(node.Items)
	if count > math.MaxUint16 {
		return fmt.Errorf("compile error: map literal exceeds max size")
	}
	for _, item := range node.Items {
		// A bare identifier key is shorthand for a string key
		if ident, ok := item.Key.(*ast.Ident); ok {
			c.emit(op.LoadConst, c.constant(ident.Name))
		} else {
			if err := c.compile(item.Key); err != nil {
				return err
			}
		}
		if err := c.compile(item.Value); err != nil {
			return err
		}
	}
	c.emit(op.BuildMap, uint16(count))
	return nil
}

func (c *Compiler) compileSet(node *ast.Set) error {
	count := len(node.Items)
	if count > math.MaxUint16 {
		return fmt.Errorf("compile error: set literal exceeds max size")
	}
	for _, expr := range node.Items {
		if err := c.compile(expr); err != nil {
			return err
		}
	}
	c.emit(op.BuildSet, uint16(count))
	return nil
}

func (c *Compiler) compileIf(node *ast.If) error {
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	jumpIfFalsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compile(node.Consequence); err != nil {
		return err
	}
	// Jump forward to skip the alternative by default
	jumpForwardPos := c.emit(op.JumpForward, Placeholder)
	// Update PopJumpForwardIfFalse to point to the alternative, so that it
	// is executed if the condition is false
	delta, err := c.calculateDelta(jumpIfFalsePos)
	if err != nil {
		return err
	}
	c.changeOperand(jumpIfFalsePos, delta)
	if node.Alternative != nil {
		if err := c.compile(node.Alternative); err != nil {
			return err
		}
	} else {
		// This allows ifs to be used as expressions. If the if check fails
		// and there is no alternative, the result is nil.
		c.emit(op.Nil)
	}
	delta, err = c.calculateDelta(jumpForwardPos)
	if err != nil {
		return err
	}
	c.changeOperand(jumpForwardPos, delta)
	return nil
}

func (c *Compiler) compileFor(node *ast.For) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.GetIter)

	code := c.current
	code.symbols = code.symbols.NewBlock()
	defer func() {
		code.symbols = code.symbols.parent
	}()
	sym, err := code.symbols.InsertVariable(node.Var.Name)
	if err != nil {
		return c.formatError(err.Error(), node.Pos())
	}

	loopStart := c.currentPosition()
	forIterPos := c.emit(op.ForIter, Placeholder)
	if code.symbols.IsGlobal() {
		c.emit(op.StoreGlobal, sym.Index())
	} else {
		c.emit(op.StoreFast, sym.Index())
	}

	lp := &loop{start: loopStart, tryDepth: code.tryDepth}
	code.loops = append(code.loops, lp)
	defer func() {
		code.loops = code.loops[:len(code.loops)-1]
	}()

	if err := c.compileBlock(node.Body); err != nil {
		return err
	}
	// Discard the body's value on each iteration
	c.emit(op.PopTop)

	c.emit(op.JumpBackward, uint16(c.currentPosition()-loopStart))

	// ForIter jumps here when the iterator is exhausted, with the iterator
	// already popped. Break jumps here as well, after popping the iterator.
	delta, err := c.calculateDelta(forIterPos)
	if err != nil {
		return err
	}
	c.changeOperand(forIterPos, delta)
	for _, pos := range lp.breakPos {
		delta, err := c.calculateDelta(pos)
		if err != nil {
			return err
		}
		c.changeOperand(pos, delta)
	}
	return nil
}

func (c *Compiler) compileBreak(node *ast.Break) error {
	lp := c.currentLoop()
	if lp == nil {
		return c.formatError("break outside of a loop", node.Pos())
	}
	// Handlers for try blocks entered inside the loop must be removed
	// before jumping out of them
	for i := lp.tryDepth; i < c.current.tryDepth; i++ {
		c.emit(op.PopExcept)
	}
	// Pop the loop's iterator before leaving
	c.emit(op.PopTop)
	lp.breakPos = append(lp.breakPos, c.emit(op.JumpForward, Placeholder))
	return nil
}

func (c *Compiler) compileContinue(node *ast.Continue) error {
	lp := c.currentLoop()
	if lp == nil {
		return c.formatError("continue outside of a loop", node.Pos())
	}
	for i := lp.tryDepth; i < c.current.tryDepth; i++ {
		c.emit(op.PopExcept)
	}
	c.emit(op.JumpBackward, uint16(c.currentPosition()-lp.start))
	return nil
}

func (c *Compiler) currentLoop() *loop {
	loops := c.current.loops
	if len(loops) == 0 {
		return nil
	}
	return loops[len(loops)-1]
}

func (c *Compiler) compileReturn(node *ast.Return) error {
	if c.current.IsRoot() {
		return c.formatError("invalid return statement outside of a function", node.Pos())
	}
	if node.Value == nil {
		c.emit(op.Nil)
	} else {
		if err := c.compile(node.Value); err != nil {
			return err
		}
	}
	c.emit(op.ReturnValue)
	return nil
}

func (c *Compiler) compileFunc(node *ast.Func) error {
	if len(node.Params) > MaxArgs {
		return c.formatError(fmt.Sprintf("function exceeded parameter limit of %d", MaxArgs), node.Pos())
	}

	// The function has an optional name. If it is named, the name will be
	// stored in the function's own symbol table to support recursive calls.
	var functionName string
	if ident := node.Name; ident != nil {
		functionName = ident.Name
	}

	// This new code object will store the compiled code for this function
	c.funcIndex++
	functionID := fmt.Sprintf("%d", c.funcIndex)
	code := c.current.newChild(functionName, node.Body.String(), functionID)

	// Setting current here means subsequent calls to compile will add to this
	// code object instead of the parent.
	c.current = code

	params := make([]string, len(node.Params))
	for i, p := range node.Params {
		params[i] = p.Name
		if _, err := code.symbols.InsertVariable(p.Name); err != nil {
			return c.formatError(err.Error(), p.Pos())
		}
	}

	// Add the function's own name to its symbol table, supporting recursion.
	if code.isNamed {
		if _, err := code.symbols.InsertConstant(functionName); err != nil {
			return err
		}
	}

	if err := c.compileFunctionBlock(node.Body); err != nil {
		return err
	}

	// We're done compiling the function, so switch back to the parent
	c.current = c.current.parent

	fn := NewFunction(FunctionOpts{
		ID:         functionID,
		Name:       functionName,
		Parameters: params,
		Body:       node.Body.String(),
		Code:       code,
	})

	// Emit the code to load the function object onto the stack. If there are
	// free variables, we use LoadClosure, otherwise we use LoadConst.
	freeCount := code.symbols.FreeCount()
	if freeCount > 0 {
		for i := uint16(0); i < freeCount; i++ {
			resolution := code.symbols.Free(i)
			c.emit(op.MakeCell, resolution.symbol.Index(), uint16(resolution.depth-1))
		}
		c.emit(op.LoadClosure, c.constant(fn), freeCount)
	} else {
		c.emit(op.LoadConst, c.constant(fn))
	}

	// If the function was named, store it as a named variable in the current
	// code. Otherwise, just leave it on the stack.
	if code.isNamed {
		// The symbol may already exist from the forward reference pass
		funcSymbol, found := c.current.symbols.Get(functionName)
		if !found {
			var err error
			funcSymbol, err = c.current.symbols.InsertConstant(functionName)
			if err != nil {
				return c.formatError(err.Error(), node.Pos())
			}
		}
		// Duplicate the function on the stack, so that the declaration also
		// evaluates to a value
		c.emit(op.Copy, 0)
		if c.current.symbols.IsGlobal() {
			c.emit(op.StoreGlobal, funcSymbol.Index())
		} else {
			c.emit(op.StoreFast, funcSymbol.Index())
		}
	}
	return nil
}

func (c *Compiler) compileTry(node *ast.Try) error {
	tryStart := c.currentPosition()

	// PushExcept's operand is the handler table index, patched below
	pushExceptPos := c.emit(op.PushExcept, Placeholder)
	c.current.tryDepth++

	// The try body's value stays on the stack as the expression result
	if err := c.compileBlock(node.Body); err != nil {
		c.current.tryDepth--
		return err
	}

	// Normal completion removes the exception handler
	c.current.tryDepth--
	c.emit(op.PopExcept)
	jumpEndPos := c.emit(op.JumpForward, Placeholder)

	// The VM jumps here on a caught error, with the error object pushed
	catchStart := c.currentPosition()

	code := c.current
	code.symbols = code.symbols.NewBlock()
	catchVarIdx := NoCatchVar
	if node.CatchIdent != nil {
		sym, err := code.symbols.InsertVariable(node.CatchIdent.Name)
		if err != nil {
			code.symbols = code.symbols.parent
			return c.formatError(err.Error(), node.Pos())
		}
		catchVarIdx = sym.Index()
		if code.symbols.IsGlobal() {
			c.emit(op.StoreGlobal, sym.Index())
		} else {
			c.emit(op.StoreFast, sym.Index())
		}
	} else {
		c.emit(op.PopTop)
	}
	if err := c.compileBlock(node.CatchBlock); err != nil {
		code.symbols = code.symbols.parent
		return err
	}
	code.symbols = code.symbols.parent

	delta, err := c.calculateDelta(jumpEndPos)
	if err != nil {
		return err
	}
	c.changeOperand(jumpEndPos, delta)

	handlerIdx := c.current.AddExceptionHandler(&ExceptionHandler{
		TryStart:    uint16(tryStart),
		TryEnd:      uint16(catchStart),
		CatchStart:  uint16(catchStart),
		CatchVarIdx: catchVarIdx,
	})
	c.changeOperand(pushExceptPos, handlerIdx)
	return nil
}

func (c *Compiler) compileThrow(node *ast.Throw) error {
	if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emit(op.Throw)
	return nil
}

// varPlan records how one comprehension variable binds within its region.
type varPlan struct {
	name string
	// reuse indicates the region borrows an existing local slot, which must
	// be saved at entry and restored at exit. Otherwise the region claims a
	// fresh anonymous slot and the outer binding is left untouched.
	reuse bool
	slot  uint16
}

// compileComprehension inlines a comprehension into the current code object.
//
// Stack discipline, from region entry to exit (N saved slots, K nested
// iterators):
//
//	GetIter            [iter1]
//	BeginRegion r      [iter1]                      region entry depth recorded
//	LoadFastAndClear*  [iter1, s1..sN]              saves, declaration order
//	Build{List,Set,Map} 0
//	                   [iter1, s1..sN, acc]
//	Swap N+1           [acc, s1..sN, iter1]         iterator back on top
//	loop body          [acc, s1..sN, iter1..iterK]  Copy N+K lifts acc to append
//	outer ForIter exhausts
//	                   [acc, s1..sN]
//	StoreFast*         [acc]                        restores, reverse order
//	EndRegion          [acc]
//
// The accumulator ends up exactly where a call's return value would sit, and
// no child code object is created.
func (c *Compiler) compileComprehension(node *ast.Comprehension) error {
	if len(node.Clauses) == 0 {
		return c.formatError("comprehension has no clauses", node.Pos())
	}
	first, ok := node.Clauses[0].(*ast.ForClause)
	if !ok {
		return c.formatError("comprehension must start with a for clause", node.Pos())
	}

	// The outermost iterable evaluates in the surrounding scope, before the
	// region exists, so a fault in it never triggers a restore.
	if err := c.compile(first.X); err != nil {
		return err
	}
	c.emit(op.GetIter)

	// Classify each bound name against the enclosing scope. A name already
	// occupying a local slot of the enclosing unit reuses that slot with
	// save/restore. Globals, captured cells, and module-level bindings are
	// never written: those names shadow into fresh anonymous slots instead.
	vars := node.Vars()
	plans := make([]varPlan, 0, len(vars))
	for _, v := range vars {
		scope, found := c.current.symbols.Classify(v.Name)
		if found && scope == Local {
			resolution, ok := c.current.symbols.Resolve(v.Name)
			if !ok {
				return c.formatError(fmt.Sprintf("cannot classify comprehension variable %q", v.Name), v.Pos())
			}
			if resolution.symbol.IsConstant() {
				return c.formatError(fmt.Sprintf("cannot use constant %q as a comprehension variable", v.Name), v.Pos())
			}
			if resolution.symbol.IsCaptured() {
				// Cells alias the slot, so a reuse write would be visible
				// through every closure capturing this variable. Shadow
				// into a fresh slot and leave the cell contents alone.
				plans = append(plans, varPlan{name: v.Name})
				continue
			}
			plans = append(plans, varPlan{name: v.Name, reuse: true, slot: resolution.symbol.Index()})
		} else {
			plans = append(plans, varPlan{name: v.Name})
		}
	}

	// The region's block scope holds the shadow bindings
	code := c.current
	code.symbols = code.symbols.NewBlock()
	defer func() {
		code.symbols = code.symbols.parent
	}()

	region := &InlinedRegion{}
	for _, p := range plans {
		if p.reuse {
			region.SaveSlots = append(region.SaveSlots, p.slot)
			region.Vars = append(region.Vars, RegionVar{Name: p.name, Slot: p.slot})
		} else {
			sym, err := code.symbols.InsertShadow(p.name)
			if err != nil {
				return c.formatError(err.Error(), node.Pos())
			}
			region.Vars = append(region.Vars, RegionVar{Name: p.name, Slot: sym.Index()})
		}
	}
	regionIdx := code.AddRegion(region)

	c.emit(op.BeginRegion, regionIdx)
	for _, slot := range region.SaveSlots {
		c.emit(op.LoadFastAndClear, slot)
	}

	switch node.Kind {
	case ast.ListComp:
		c.emit(op.BuildList, 0)
	case ast.SetComp:
		c.emit(op.BuildSet, 0)
	case ast.MapComp:
		c.emit(op.BuildMap, 0)
	}
	saveCount := len(region.SaveSlots)
	c.emit(op.Swap, uint16(saveCount+1))

	if err := c.compileCompClauses(node, 0, 0, saveCount); err != nil {
		return err
	}

	// Restore in exact reverse of the save order
	for i := saveCount - 1; i >= 0; i-- {
		c.emit(op.StoreFast, region.SaveSlots[i])
	}
	c.emit(op.EndRegion)
	return nil
}

// compileCompClauses emits the loop nest for the comprehension's clauses,
// Starlark style: each for clause contributes a ForIter loop head, each if
// clause a conditional jump to the enclosing loop's back edge, and the
// innermost position appends to the accumulator.
func (c *Compiler) compileCompClauses(node *ast.Comprehension, idx int, iters int, saveCount int) error {
	if idx == len(node.Clauses) {
		// Lift the accumulator above the live iterators
		c.emit(op.Copy, uint16(saveCount+iters))
		switch node.Kind {
		case ast.MapComp:
			if err := c.compile(node.Key); err != nil {
				return err
			}
			if err := c.compile(node.Value); err != nil {
				return err
			}
			c.emit(op.MapSet)
		case ast.SetComp:
			if err := c.compile(node.Value); err != nil {
				return err
			}
			c.emit(op.SetAdd)
		default:
			if err := c.compile(node.Value); err != nil {
				return err
			}
			c.emit(op.ListAppend)
		}
		return nil
	}
	switch clause := node.Clauses[idx].(type) {
	case *ast.ForClause:
		// Inner iterables evaluate inside the region, so their names resolve
		// to the region's bindings
		if idx > 0 {
			if err := c.compile(clause.X); err != nil {
				return err
			}
			c.emit(op.GetIter)
		}
		loopStart := c.currentPosition()
		forIterPos := c.emit(op.ForIter, Placeholder)
		resolution, found := c.current.symbols.Resolve(clause.Var.Name)
		if !found {
			return c.formatError(fmt.Sprintf("undefined variable %q", clause.Var.Name), clause.Pos())
		}
		c.emit(op.StoreFast, resolution.symbol.Index())
		if err := c.compileCompClauses(node, idx+1, iters+1, saveCount); err != nil {
			return err
		}
		c.emit(op.JumpBackward, uint16(c.currentPosition()-loopStart))
		delta, err := c.calculateDelta(forIterPos)
		if err != nil {
			return err
		}
		c.changeOperand(forIterPos, delta)
		return nil
	case *ast.IfClause:
		if err := c.compile(clause.Cond); err != nil {
			return err
		}
		jumpPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
		if err := c.compileCompClauses(node, idx+1, iters, saveCount); err != nil {
			return err
		}
		// A false condition skips to the enclosing loop's back edge
		delta, err := c.calculateDelta(jumpPos)
		if err != nil {
			return err
		}
		c.changeOperand(jumpPos, delta)
		return nil
	default:
		return c.formatError("unknown comprehension clause", node.Pos())
	}
}

func (c *Compiler) calculateDelta(pos int) (uint16, error) {
	instrCount := len(c.current.instructions)
	delta := instrCount - pos
	if delta > math.MaxUint16 {
		return 0, fmt.Errorf("compile error: jump destination is too far away")
	}
	return uint16(delta), nil
}

func (c *Compiler) changeOperand(instructionIndex int, operand uint16) {
	c.current.instructions[instructionIndex+1] = op.Code(operand)
}

func (c *Compiler) constant(obj any) uint16 {
	code := c.current
	if len(code.constants) >= math.MaxUint16 {
		c.failure = fmt.Errorf("compile error: number of constants exceeded limits")
		return 0
	}
	code.constants = append(code.constants, obj)
	return uint16(len(code.constants) - 1)
}

func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	inst := makeInstruction(opcode, operands...)
	code := c.current
	pos := len(code.instructions)
	code.instructions = append(code.instructions, inst...)

	// Track maximum call arguments for VM stack sizing
	if opcode == op.Call && len(operands) > 0 {
		argc := int(operands[0])
		if argc > code.maxCallArgs {
			code.maxCallArgs = argc
		}
	}

	// Record source location for each instruction slot
	loc := c.getCurrentLocation()
	for range inst {
		code.locations = append(code.locations, loc)
	}
	return pos
}

// emitLoad emits the appropriate load instruction based on the variable's scope.
func (c *Compiler) emitLoad(resolution *Resolution) {
	switch resolution.scope {
	case Global:
		c.emit(op.LoadGlobal, resolution.symbol.Index())
	case Local:
		c.emit(op.LoadFast, resolution.symbol.Index())
	case Free:
		c.emit(op.LoadFree, uint16(resolution.freeIndex))
	}
}

// emitStore emits the appropriate store instruction based on the variable's scope.
func (c *Compiler) emitStore(resolution *Resolution) {
	switch resolution.scope {
	case Global:
		c.emit(op.StoreGlobal, resolution.symbol.Index())
	case Local:
		c.emit(op.StoreFast, resolution.symbol.Index())
	case Free:
		c.emit(op.StoreFree, uint16(resolution.freeIndex))
	}
}

// getCurrentLocation returns the source location of the current AST node.
func (c *Compiler) getCurrentLocation() errz.SourceLocation {
	if c.currentNode == nil {
		return errz.SourceLocation{}
	}
	pos := c.currentNode.Pos()
	return errz.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   c.getSourceLine(pos.Line),
	}
}

func makeInstruction(opcode op.Code, operands ...uint16) []op.Code {
	opInfo := op.GetInfo(opcode)
	if len(operands) != opInfo.OperandCount {
		panic("compile error: wrong operand count")
	}
	instruction := make([]op.Code, 1+opInfo.OperandCount)
	instruction[0] = opcode
	offset := 1
	for _, o := range operands {
		instruction[offset] = op.Code(o)
		offset++
	}
	return instruction
}

func normalizeFunctionBlock(node *ast.Block) []ast.Node {
	// Return a new slice of ast.Node that has some guarantees:
	// 1. The slice ends with the first return statement
	// 2. If there are no return statements, append one implicitly
	// 3. An implicit return will return the value of the last statement if
	//    it produces one, or nil otherwise.
	returnNil := &ast.Return{Value: &ast.Nil{}}
	statements := node.Stmts
	count := len(statements)
	if count == 0 {
		return []ast.Node{returnNil}
	}
	for i, stmt := range statements {
		if _, ok := stmt.(*ast.Return); ok {
			return statements[:i+1]
		}
	}
	// No explicit return statement: return the value of the last statement.
	// An expression is wrapped in a return node. An if or try leaves its
	// value on the stack itself, so it stays in tail position as is.
	result := make([]ast.Node, count)
	copy(result, statements)
	last := result[count-1]
	switch last := last.(type) {
	case ast.Expr:
		result[count-1] = &ast.Return{Value: last}
	default:
		if !leavesValue(last) {
			result = append(result, returnNil)
		}
	}
	return result
}

// formatError creates an error message with file, line, and column information.
func (c *Compiler) formatError(msg string, pos token.Position) error {
	loc := errz.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   c.getSourceLine(pos.Line),
	}
	return errz.NewStructuredError(errz.ErrSyntax, "compile error: "+msg, loc, nil)
}

// getSourceLine retrieves a specific line from the source code.
// lineNum is 0-indexed.
func (c *Compiler) getSourceLine(lineNum int) string {
	source := c.source
	if source == "" {
		source = c.main.source
	}
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum < 0 || lineNum >= len(lines) {
		return ""
	}
	return lines[lineNum]
}
