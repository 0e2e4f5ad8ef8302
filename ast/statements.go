package ast

import (
	"bytes"
	"fmt"

	"github.com/quill-lang/quill/token"
)

// Program represents an entire parsed program, which is a list of statements.
type Program struct {
	Stmts []Node
}

func (p *Program) Pos() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return token.NoPos
}

func (p *Program) End() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[len(p.Stmts)-1].End()
	}
	return token.NoPos
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, stmt := range p.Stmts {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(stmt.String())
	}
	return out.String()
}

// Block is a braced sequence of statements, as used for function bodies and
// the bodies of if, for, and try statements.
type Block struct {
	Lbrace token.Position // position of "{"
	Stmts  []Node
	Rbrace token.Position // position of "}"
}

func (x *Block) stmtNode() {}

func (x *Block) Pos() token.Position { return x.Lbrace }
func (x *Block) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, stmt := range x.Stmts {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(stmt.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Let is a variable declaration statement, e.g. "let x = 1".
type Let struct {
	LetPos token.Position // position of "let"
	Name   *Ident
	Value  Expr
}

func (x *Let) stmtNode() {}

func (x *Let) Pos() token.Position { return x.LetPos }
func (x *Let) End() token.Position { return x.Value.End() }

func (x *Let) String() string {
	return fmt.Sprintf("let %s = %s", x.Name.Name, x.Value.String())
}

// Const is a constant declaration statement, e.g. "const x = 1".
type Const struct {
	ConstPos token.Position // position of "const"
	Name     *Ident
	Value    Expr
}

func (x *Const) stmtNode() {}

func (x *Const) Pos() token.Position { return x.ConstPos }
func (x *Const) End() token.Position { return x.Value.End() }

func (x *Const) String() string {
	return fmt.Sprintf("const %s = %s", x.Name.Name, x.Value.String())
}

// Assign is an assignment to an existing variable or to a container index.
// Exactly one of Name and Index is set.
type Assign struct {
	Name  *Ident // assignment target variable, if any
	Index *Index // assignment target index expression, if any
	OpPos token.Position
	Op    string // "=", "+=", "-=", "*=", "/="
	Value Expr
}

func (x *Assign) stmtNode() {}

func (x *Assign) Pos() token.Position {
	if x.Name != nil {
		return x.Name.Pos()
	}
	return x.Index.Pos()
}

func (x *Assign) End() token.Position { return x.Value.End() }

func (x *Assign) String() string {
	var target string
	if x.Name != nil {
		target = x.Name.String()
	} else {
		target = x.Index.String()
	}
	return fmt.Sprintf("%s %s %s", target, x.Op, x.Value.String())
}

// If is a conditional statement with an optional else branch. The else
// branch, if present, is either a Block or another If.
type If struct {
	IfPos       token.Position // position of "if"
	Cond        Expr
	Consequence *Block
	Alternative Node // *Block, *If, or nil
}

func (x *If) stmtNode() {}

func (x *If) Pos() token.Position { return x.IfPos }

func (x *If) End() token.Position {
	if x.Alternative != nil {
		return x.Alternative.End()
	}
	return x.Consequence.End()
}

func (x *If) String() string {
	var out bytes.Buffer
	out.WriteString("if " + x.Cond.String() + " " + x.Consequence.String())
	if x.Alternative != nil {
		out.WriteString(" else " + x.Alternative.String())
	}
	return out.String()
}

// For is an iteration statement: "for x in xs { ... }".
type For struct {
	ForPos token.Position // position of "for"
	Var    *Ident         // iteration variable
	X      Expr           // the iterable expression
	Body   *Block
}

func (x *For) stmtNode() {}

func (x *For) Pos() token.Position { return x.ForPos }
func (x *For) End() token.Position { return x.Body.End() }

func (x *For) String() string {
	return fmt.Sprintf("for %s in %s %s", x.Var.Name, x.X.String(), x.Body.String())
}

// Break terminates the innermost enclosing for loop.
type Break struct {
	BreakPos token.Position
}

func (x *Break) stmtNode() {}

func (x *Break) Pos() token.Position { return x.BreakPos }
func (x *Break) End() token.Position { return x.BreakPos.Advance(5) }
func (x *Break) String() string      { return "break" }

// Continue advances the innermost enclosing for loop to its next iteration.
type Continue struct {
	ContinuePos token.Position
}

func (x *Continue) stmtNode() {}

func (x *Continue) Pos() token.Position { return x.ContinuePos }
func (x *Continue) End() token.Position { return x.ContinuePos.Advance(8) }
func (x *Continue) String() string      { return "continue" }

// Return is a return statement, with an optional value.
type Return struct {
	ReturnPos token.Position
	Value     Expr // nil means "return nil"
}

func (x *Return) stmtNode() {}

func (x *Return) Pos() token.Position { return x.ReturnPos }

func (x *Return) End() token.Position {
	if x.Value != nil {
		return x.Value.End()
	}
	return x.ReturnPos.Advance(6)
}

func (x *Return) String() string {
	if x.Value != nil {
		return "return " + x.Value.String()
	}
	return "return"
}

// Throw raises the given value as an exception.
type Throw struct {
	ThrowPos token.Position
	Value    Expr
}

func (x *Throw) stmtNode() {}

func (x *Throw) Pos() token.Position { return x.ThrowPos }
func (x *Throw) End() token.Position { return x.Value.End() }
func (x *Throw) String() string      { return "throw " + x.Value.String() }

// Try is an exception handling statement: "try { ... } catch e { ... }".
type Try struct {
	TryPos     token.Position
	Body       *Block
	CatchIdent *Ident // the caught error variable; may be nil
	CatchBlock *Block
}

func (x *Try) stmtNode() {}

func (x *Try) Pos() token.Position { return x.TryPos }
func (x *Try) End() token.Position { return x.CatchBlock.End() }

func (x *Try) String() string {
	var out bytes.Buffer
	out.WriteString("try " + x.Body.String() + " catch ")
	if x.CatchIdent != nil {
		out.WriteString(x.CatchIdent.Name + " ")
	}
	out.WriteString(x.CatchBlock.String())
	return out.String()
}
