package parser

import (
	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/token"
)

// Container literal parsing: lists, maps, sets, and the comprehension forms
// of each. A comprehension is recognized when "for" follows the first
// element expression, e.g. "[x * 2 for x in items]".

func (p *Parser) parseList() ast.Node {
	lbracket := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if p.curTokenIs(token.RBRACKET) {
		return &ast.List{Lbracket: lbracket, Rbracket: p.curToken.StartPosition}
	}
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.skipNewlinesAndPeek(token.FOR) {
		clauses := p.parseCompClauses()
		if clauses == nil {
			return nil
		}
		if !p.skipNewlinesAndPeek(token.RBRACKET) {
			return p.setTokenError(p.peekToken,
				"unexpected %q while parsing list comprehension (expected \"]\")", p.peekToken.Literal)
		}
		p.nextToken()
		return &ast.Comprehension{
			Lpos:    lbracket,
			Kind:    ast.ListComp,
			Value:   first,
			Clauses: clauses,
			Rpos:    p.curToken.StartPosition,
		}
	}
	items := []ast.Expr{first}
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		if p.curTokenIs(token.RBRACKET) {
			// Trailing comma
			return &ast.List{Lbracket: lbracket, Items: items, Rbracket: p.curToken.StartPosition}
		}
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil
		}
		items = append(items, item)
	}
	if !p.skipNewlinesAndPeek(token.RBRACKET) {
		return p.setTokenError(p.peekToken,
			"unexpected %q while parsing list literal (expected \"]\")", p.peekToken.Literal)
	}
	p.nextToken()
	return &ast.List{Lbracket: lbracket, Items: items, Rbracket: p.curToken.StartPosition}
}

// parseMapOrSet parses a braced literal, which may be a map, a set, or a
// comprehension of either. "{}" is an empty map.
func (p *Parser) parseMapOrSet() ast.Node {
	lbrace := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if p.curTokenIs(token.RBRACE) {
		return &ast.Map{Lbrace: lbrace, Rbrace: p.curToken.StartPosition}
	}
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COLON) {
		return p.parseMapTail(lbrace, first)
	}
	return p.parseSetTail(lbrace, first)
}

func (p *Parser) parseMapTail(lbrace token.Position, firstKey ast.Expr) ast.Node {
	p.nextToken() // the ":"
	p.nextToken()
	firstValue := p.parseExpression(LOWEST)
	if firstValue == nil {
		return nil
	}
	if p.skipNewlinesAndPeek(token.FOR) {
		clauses := p.parseCompClauses()
		if clauses == nil {
			return nil
		}
		if !p.skipNewlinesAndPeek(token.RBRACE) {
			return p.setTokenError(p.peekToken,
				"unexpected %q while parsing map comprehension (expected \"}\")", p.peekToken.Literal)
		}
		p.nextToken()
		return &ast.Comprehension{
			Lpos:    lbrace,
			Kind:    ast.MapComp,
			Key:     firstKey,
			Value:   firstValue,
			Clauses: clauses,
			Rpos:    p.curToken.StartPosition,
		}
	}
	items := []ast.MapItem{{Key: firstKey, Value: firstValue}}
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		if p.curTokenIs(token.RBRACE) {
			return &ast.Map{Lbrace: lbrace, Items: items, Rbrace: p.curToken.StartPosition}
		}
		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		if !p.expectPeek("map literal", token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		items = append(items, ast.MapItem{Key: key, Value: value})
	}
	if !p.skipNewlinesAndPeek(token.RBRACE) {
		return p.setTokenError(p.peekToken,
			"unexpected %q while parsing map literal (expected \"}\")", p.peekToken.Literal)
	}
	p.nextToken()
	return &ast.Map{Lbrace: lbrace, Items: items, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseSetTail(lbrace token.Position, first ast.Expr) ast.Node {
	if p.skipNewlinesAndPeek(token.FOR) {
		clauses := p.parseCompClauses()
		if clauses == nil {
			return nil
		}
		if !p.skipNewlinesAndPeek(token.RBRACE) {
			return p.setTokenError(p.peekToken,
				"unexpected %q while parsing set comprehension (expected \"}\")", p.peekToken.Literal)
		}
		p.nextToken()
		return &ast.Comprehension{
			Lpos:    lbrace,
			Kind:    ast.SetComp,
			Value:   first,
			Clauses: clauses,
			Rpos:    p.curToken.StartPosition,
		}
	}
	items := []ast.Expr{first}
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		if p.curTokenIs(token.RBRACE) {
			return &ast.Set{Lbrace: lbrace, Items: items, Rbrace: p.curToken.StartPosition}
		}
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil
		}
		items = append(items, item)
	}
	if !p.skipNewlinesAndPeek(token.RBRACE) {
		return p.setTokenError(p.peekToken,
			"unexpected %q while parsing set literal (expected \"}\")", p.peekToken.Literal)
	}
	p.nextToken()
	return &ast.Set{Lbrace: lbrace, Items: items, Rbrace: p.curToken.StartPosition}
}

// parseCompClauses parses the "for x in xs" and "if cond" clauses of a
// comprehension, in source order. The next token is the first "for".
func (p *Parser) parseCompClauses() []ast.CompClause {
	var clauses []ast.CompClause
	for {
		if p.skipNewlinesAndPeek(token.FOR) {
			p.nextToken()
			forPos := p.curToken.StartPosition
			if !p.expectPeek("comprehension", token.IDENT) {
				return nil
			}
			loopVar := p.newIdent(p.curToken)
			if !p.expectPeek("comprehension", token.IN) {
				return nil
			}
			p.nextToken()
			iterable := p.parseExpression(LOWEST)
			if iterable == nil {
				return nil
			}
			clauses = append(clauses, &ast.ForClause{ForPos: forPos, Var: loopVar, X: iterable})
		} else if p.skipNewlinesAndPeek(token.IF) {
			p.nextToken()
			ifPos := p.curToken.StartPosition
			p.nextToken()
			cond := p.parseExpression(LOWEST)
			if cond == nil {
				return nil
			}
			clauses = append(clauses, &ast.IfClause{IfPos: ifPos, Cond: cond})
		} else {
			return clauses
		}
	}
}
