package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/quill-lang/quill/token"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	NamePos token.Position // position of identifier
	Name    string         // identifier name
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// Nil is the expression node for the nil literal.
type Nil struct {
	ValuePos token.Position
}

func (x *Nil) exprNode() {}

func (x *Nil) Pos() token.Position { return x.ValuePos }
func (x *Nil) End() token.Position { return x.ValuePos.Advance(3) }
func (x *Nil) String() string      { return "nil" }

// Int is an integer literal expression node.
type Int struct {
	ValuePos token.Position
	Literal  string
	Value    int64
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }
func (x *Int) String() string      { return x.Literal }

// Float is a floating point literal expression node.
type Float struct {
	ValuePos token.Position
	Literal  string
	Value    float64
}

func (x *Float) exprNode() {}

func (x *Float) Pos() token.Position { return x.ValuePos }
func (x *Float) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }
func (x *Float) String() string      { return x.Literal }

// Bool is a boolean literal expression node.
type Bool struct {
	ValuePos token.Position
	Value    bool
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position {
	if x.Value {
		return x.ValuePos.Advance(4)
	}
	return x.ValuePos.Advance(5)
}

func (x *Bool) String() string { return fmt.Sprintf("%t", x.Value) }

// String is a string literal expression node.
type String struct {
	ValuePos token.Position
	EndPos   token.Position
	Value    string
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.EndPos }
func (x *String) String() string      { return fmt.Sprintf("%q", x.Value) }

// Prefix is an operator expression where the operator precedes the operand.
// Examples include "!false" and "-x".
type Prefix struct {
	OpPos token.Position // position of operator
	Op    string         // operator: "!" or "-"
	X     Expr           // operand
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	return fmt.Sprintf("(%s%s)", x.Op, x.X.String())
}

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y" and "5 - 1".
type Infix struct {
	X     Expr           // left operand
	OpPos token.Position // position of operator
	Op    string         // operator: "+", "-", "*", "/", etc.
	Y     Expr           // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	return fmt.Sprintf("(%s %s %s)", x.X.String(), x.Op, x.Y.String())
}

// Call is an expression node representing the invocation of a function.
type Call struct {
	Fun    Expr           // function expression
	Lparen token.Position // position of "("
	Args   []Expr         // function arguments
	Rparen token.Position // position of ")"
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	var args []string
	for _, arg := range x.Args {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("%s(%s)", x.Fun.String(), strings.Join(args, ", "))
}

// Index is an expression node representing a container lookup, e.g. "xs[0]".
type Index struct {
	X        Expr           // container expression
	Lbracket token.Position // position of "["
	Index    Expr           // index expression
	Rbracket token.Position // position of "]"
}

func (x *Index) exprNode() {}

func (x *Index) Pos() token.Position { return x.X.Pos() }
func (x *Index) End() token.Position { return x.Rbracket.Advance(1) }

func (x *Index) String() string {
	return fmt.Sprintf("%s[%s]", x.X.String(), x.Index.String())
}

// List is a list literal expression node, e.g. "[1, 2, 3]".
type List struct {
	Lbracket token.Position
	Items    []Expr
	Rbracket token.Position
}

func (x *List) exprNode() {}

func (x *List) Pos() token.Position { return x.Lbracket }
func (x *List) End() token.Position { return x.Rbracket.Advance(1) }

func (x *List) String() string {
	var items []string
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(items, ", "))
}

// MapItem is one key-value entry in a map literal.
type MapItem struct {
	Key   Expr
	Value Expr
}

// Map is a map literal expression node, e.g. `{"a": 1}`.
type Map struct {
	Lbrace token.Position
	Items  []MapItem
	Rbrace token.Position
}

func (x *Map) exprNode() {}

func (x *Map) Pos() token.Position { return x.Lbrace }
func (x *Map) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Map) String() string {
	var items []string
	for _, item := range x.Items {
		items = append(items, fmt.Sprintf("%s: %s", item.Key.String(), item.Value.String()))
	}
	return fmt.Sprintf("{%s}", strings.Join(items, ", "))
}

// Set is a set literal expression node, e.g. `{1, 2, 3}`.
type Set struct {
	Lbrace token.Position
	Items  []Expr
	Rbrace token.Position
}

func (x *Set) exprNode() {}

func (x *Set) Pos() token.Position { return x.Lbrace }
func (x *Set) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Set) String() string {
	var items []string
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return fmt.Sprintf("{%s}", strings.Join(items, ", "))
}

// Func is a function literal, which may optionally be named.
type Func struct {
	FuncPos token.Position // position of "func"
	Name    *Ident         // function name; nil for anonymous functions
	Params  []*Ident       // parameter names
	Body    *Block         // function body
}

func (x *Func) exprNode() {}

func (x *Func) Pos() token.Position { return x.FuncPos }
func (x *Func) End() token.Position { return x.Body.End() }

func (x *Func) String() string {
	var out bytes.Buffer
	out.WriteString("func")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	var params []string
	for _, p := range x.Params {
		params = append(params, p.Name)
	}
	out.WriteString("(" + strings.Join(params, ", ") + ") ")
	out.WriteString(x.Body.String())
	return out.String()
}

// ComprehensionKind indicates which container a comprehension builds.
type ComprehensionKind int

const (
	ListComp ComprehensionKind = iota
	SetComp
	MapComp
)

// CompClause is a single "for" or "if" clause within a comprehension.
type CompClause interface {
	Node
	compClauseNode()
}

// ForClause is a "for IDENT in EXPR" clause of a comprehension. The clause
// binds Var for the clauses and body to its right.
type ForClause struct {
	ForPos token.Position // position of "for"
	Var    *Ident         // iteration variable
	X      Expr           // the iterable expression
}

func (c *ForClause) compClauseNode() {}

func (c *ForClause) Pos() token.Position { return c.ForPos }
func (c *ForClause) End() token.Position { return c.X.End() }

func (c *ForClause) String() string {
	return fmt.Sprintf("for %s in %s", c.Var.Name, c.X.String())
}

// IfClause is an "if EXPR" filter clause within a comprehension.
type IfClause struct {
	IfPos token.Position // position of "if"
	Cond  Expr           // filter condition
}

func (c *IfClause) compClauseNode() {}

func (c *IfClause) Pos() token.Position { return c.IfPos }
func (c *IfClause) End() token.Position { return c.Cond.End() }

func (c *IfClause) String() string {
	return fmt.Sprintf("if %s", c.Cond.String())
}

// Comprehension is a list, set, or map comprehension expression. For map
// comprehensions both Key and Value are set; otherwise only Value is set.
// Clauses holds the for/if clauses in source order; the first clause is
// always a ForClause.
type Comprehension struct {
	Lpos    token.Position // position of "[" or "{"
	Kind    ComprehensionKind
	Key     Expr // key expression; nil unless Kind is MapComp
	Value   Expr // element (or map value) expression
	Clauses []CompClause
	Rpos    token.Position // position of "]" or "}"
}

func (x *Comprehension) exprNode() {}

func (x *Comprehension) Pos() token.Position { return x.Lpos }
func (x *Comprehension) End() token.Position { return x.Rpos.Advance(1) }

func (x *Comprehension) String() string {
	var out bytes.Buffer
	opener, closer := "[", "]"
	if x.Kind != ListComp {
		opener, closer = "{", "}"
	}
	out.WriteString(opener)
	if x.Kind == MapComp {
		out.WriteString(x.Key.String() + ": ")
	}
	out.WriteString(x.Value.String())
	for _, clause := range x.Clauses {
		out.WriteString(" " + clause.String())
	}
	out.WriteString(closer)
	return out.String()
}

// Vars returns the iteration variables bound by the comprehension's for
// clauses, in declaration order, without duplicates.
func (x *Comprehension) Vars() []*Ident {
	var vars []*Ident
	seen := map[string]bool{}
	for _, clause := range x.Clauses {
		if fc, ok := clause.(*ForClause); ok && !seen[fc.Var.Name] {
			seen[fc.Var.Name] = true
			vars = append(vars, fc.Var)
		}
	}
	return vars
}
