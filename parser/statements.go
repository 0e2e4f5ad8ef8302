package parser

import (
	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/token"
)

// Statement parsing methods for the Parser: declarations (let, const),
// control flow (if, for, break, continue, return), exception handling
// (throw, try/catch), and expression statements.

func (p *Parser) parseStatement() ast.Node {
	var stmt ast.Node
	switch p.curToken.Type {
	case token.LET:
		stmt = p.parseLet()
	case token.CONST:
		stmt = p.parseConst()
	case token.IF:
		stmt = p.parseIf()
	case token.FOR:
		stmt = p.parseFor()
	case token.BREAK:
		stmt = &ast.Break{BreakPos: p.curToken.StartPosition}
	case token.CONTINUE:
		stmt = &ast.Continue{ContinuePos: p.curToken.StartPosition}
	case token.RETURN:
		stmt = p.parseReturn()
	case token.THROW:
		stmt = p.parseThrow()
	case token.TRY:
		stmt = p.parseTry()
	case token.NEWLINE, token.SEMICOLON:
		stmt = nil
	default:
		stmt = p.parseNode(LOWEST)
	}
	// Consume a trailing semicolon if present
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseLet() ast.Node {
	letPos := p.curToken.StartPosition
	if !p.expectPeek("let statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.expectPeek("let statement", token.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Let{LetPos: letPos, Name: name, Value: value}
}

func (p *Parser) parseConst() ast.Node {
	constPos := p.curToken.StartPosition
	if !p.expectPeek("const statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.expectPeek("const statement", token.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Const{ConstPos: constPos, Name: name, Value: value}
}

// parseAssign handles assignment to a variable or container element. It is
// registered as an infix function so that targets parse naturally, but the
// resulting node is a statement, not an expression.
func (p *Parser) parseAssign(left ast.Node) ast.Node {
	assign := &ast.Assign{
		OpPos: p.curToken.StartPosition,
		Op:    string(p.curToken.Type),
	}
	switch left := left.(type) {
	case *ast.Ident:
		assign.Name = left
	case *ast.Index:
		assign.Index = left
	default:
		return p.setTokenError(p.curToken, "invalid assignment target")
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	assign.Value = value
	return assign
}

func (p *Parser) parseIf() ast.Node {
	ifPos := p.curToken.StartPosition
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if !p.expectPeek("if statement", token.LBRACE) {
		return nil
	}
	consequence := p.parseBlock()
	if consequence == nil {
		return nil
	}
	stmt := &ast.If{IfPos: ifPos, Cond: cond, Consequence: consequence}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			stmt.Alternative = p.parseIf()
			if stmt.Alternative == nil {
				return nil
			}
			return stmt
		}
		if !p.expectPeek("else block", token.LBRACE) {
			return nil
		}
		alternative := p.parseBlock()
		if alternative == nil {
			return nil
		}
		stmt.Alternative = alternative
	}
	return stmt
}

func (p *Parser) parseFor() ast.Node {
	forPos := p.curToken.StartPosition
	if !p.expectPeek("for statement", token.IDENT) {
		return nil
	}
	loopVar := p.newIdent(p.curToken)
	if !p.expectPeek("for statement", token.IN) {
		return nil
	}
	p.nextToken()
	iterable := p.parseExpression(LOWEST)
	if iterable == nil {
		return nil
	}
	if !p.expectPeek("for statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.For{ForPos: forPos, Var: loopVar, X: iterable, Body: body}
}

func (p *Parser) parseReturn() ast.Node {
	returnPos := p.curToken.StartPosition
	stmt := &ast.Return{ReturnPos: returnPos}
	if statementTerminators[p.peekToken.Type] {
		return stmt
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	stmt.Value = value
	return stmt
}

func (p *Parser) parseThrow() ast.Node {
	throwPos := p.curToken.StartPosition
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Throw{ThrowPos: throwPos, Value: value}
}

func (p *Parser) parseTry() ast.Node {
	tryPos := p.curToken.StartPosition
	if !p.expectPeek("try statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	if !p.expectPeek("try statement", token.CATCH) {
		return nil
	}
	stmt := &ast.Try{TryPos: tryPos, Body: body}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		stmt.CatchIdent = p.newIdent(p.curToken)
	}
	if !p.expectPeek("catch block", token.LBRACE) {
		return nil
	}
	stmt.CatchBlock = p.parseBlock()
	if stmt.CatchBlock == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseBlock() *ast.Block {
	lbrace := p.curToken.StartPosition
	statements := []ast.Node{}
	if err := p.nextToken(); err != nil {
		return nil
	}
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.cancelled() {
			return nil
		}
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			return nil
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	if p.curTokenIs(token.EOF) {
		p.setTokenError(p.curToken, "unterminated block statement")
		return nil
	}
	rbrace := p.curToken.StartPosition
	return &ast.Block{Lbrace: lbrace, Stmts: statements, Rbrace: rbrace}
}

// cancelled checks whether the parsing context has been cancelled, in which
// case parsing should stop.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		p.addError(p.ctx.Err())
		return true
	default:
		return false
	}
}
