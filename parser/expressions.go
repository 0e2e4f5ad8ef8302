package parser

import (
	"strconv"

	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/token"
)

// Expression parsing methods for the Parser: identifiers and literals,
// prefix and infix operators, grouping, calls, indexing, and functions.

func (p *Parser) parseIdent() ast.Node {
	return p.newIdent(p.curToken)
}

func (p *Parser) parseNil() ast.Node {
	return &ast.Nil{ValuePos: p.curToken.StartPosition}
}

func (p *Parser) parseBool() ast.Node {
	return &ast.Bool{
		ValuePos: p.curToken.StartPosition,
		Value:    p.curTokenIs(token.TRUE),
	}
}

func (p *Parser) parseInt() ast.Node {
	tok := p.curToken
	value, err := strconv.ParseInt(tok.Literal, 0, 64)
	if err != nil {
		return p.setTokenError(tok, "invalid integer literal %q", tok.Literal)
	}
	return &ast.Int{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseFloat() ast.Node {
	tok := p.curToken
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return p.setTokenError(tok, "invalid float literal %q", tok.Literal)
	}
	return &ast.Float{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseString() ast.Node {
	return &ast.String{
		ValuePos: p.curToken.StartPosition,
		EndPos:   p.curToken.EndPosition,
		Value:    p.curToken.Literal,
	}
}

func (p *Parser) parsePrefixExpr() ast.Node {
	expr := &ast.Prefix{
		OpPos: p.curToken.StartPosition,
		Op:    p.curToken.Literal,
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	expr.X = operand
	return expr
}

func (p *Parser) parseInfixExpr(left ast.Node) ast.Node {
	leftExpr, ok := left.(ast.Expr)
	if !ok {
		return p.setTokenError(p.curToken, "invalid operand for %q", p.curToken.Literal)
	}
	expr := &ast.Infix{
		X:     leftExpr,
		OpPos: p.curToken.StartPosition,
		Op:    p.curToken.Literal,
	}
	precedence := precedences[p.curToken.Type]
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	expr.Y = right
	return expr
}

func (p *Parser) parseGroupedExpr() ast.Node {
	p.nextToken()
	p.eatNewlines()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		return p.setTokenError(p.peekToken, "unexpected %q while parsing grouped expression (expected \")\")",
			p.peekToken.Literal)
	}
	p.nextToken()
	return expr
}

func (p *Parser) parseCall(left ast.Node) ast.Node {
	fun, ok := left.(ast.Expr)
	if !ok {
		return p.setTokenError(p.curToken, "invalid function in call expression")
	}
	call := &ast.Call{Fun: fun, Lparen: p.curToken.StartPosition}
	args := p.parseExprList(token.RPAREN, "call expression")
	if p.hadNewError() {
		return nil
	}
	call.Args = args
	call.Rparen = p.curToken.StartPosition
	return call
}

// parseExprList parses a comma separated list of expressions up to the
// given end token. The current token should be the list opener; on return
// the current token is the end token.
func (p *Parser) parseExprList(end token.Type, context string) []ast.Expr {
	var items []ast.Expr
	p.nextToken()
	p.eatNewlines()
	if p.curTokenIs(end) {
		return items
	}
	item := p.parseExpression(LOWEST)
	if item == nil {
		return nil
	}
	items = append(items, item)
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		if p.curTokenIs(end) {
			// Trailing comma
			return items
		}
		item = p.parseExpression(LOWEST)
		if item == nil {
			return nil
		}
		items = append(items, item)
	}
	if !p.skipNewlinesAndPeek(end) {
		p.setTokenError(p.peekToken, "unexpected %q while parsing %s (expected %q)",
			p.peekToken.Literal, context, string(end))
		return nil
	}
	p.nextToken()
	return items
}

func (p *Parser) parseIndex(left ast.Node) ast.Node {
	x, ok := left.(ast.Expr)
	if !ok {
		return p.setTokenError(p.curToken, "invalid operand for index expression")
	}
	expr := &ast.Index{X: x, Lbracket: p.curToken.StartPosition}
	p.nextToken()
	index := p.parseExpression(LOWEST)
	if index == nil {
		return nil
	}
	expr.Index = index
	if !p.expectPeek("index expression", token.RBRACKET) {
		return nil
	}
	expr.Rbracket = p.curToken.StartPosition
	return expr
}

func (p *Parser) parseFunc() ast.Node {
	fn := &ast.Func{FuncPos: p.curToken.StartPosition}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		fn.Name = p.newIdent(p.curToken)
	}
	if !p.expectPeek("function definition", token.LPAREN) {
		return nil
	}
	fn.Params = p.parseFuncParams()
	if p.hadNewError() {
		return nil
	}
	if !p.expectPeek("function definition", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	fn.Body = body
	return fn
}

func (p *Parser) parseFuncParams() []*ast.Ident {
	var params []*ast.Ident
	p.nextToken()
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		return params
	}
	if !p.curTokenIs(token.IDENT) {
		p.setTokenError(p.curToken, "expected parameter name, got %q", p.curToken.Literal)
		return nil
	}
	params = append(params, p.newIdent(p.curToken))
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		if p.curTokenIs(token.RPAREN) {
			return params
		}
		if !p.curTokenIs(token.IDENT) {
			p.setTokenError(p.curToken, "expected parameter name, got %q", p.curToken.Literal)
			return nil
		}
		params = append(params, p.newIdent(p.curToken))
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.setTokenError(p.peekToken, "unexpected %q while parsing parameters (expected \")\")",
			p.peekToken.Literal)
		return nil
	}
	p.nextToken()
	return params
}
