// Package parser generates the abstract syntax tree (AST) for a program.
//
// A parser is created by calling New with a lexer as input. The parser
// should then be used only once, by calling Parse to produce the AST.
package parser

import (
	"context"
	"fmt"

	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/lexer"
	"github.com/quill-lang/quill/token"
)

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

// statementTerminators defines tokens that can end a statement. Newlines are
// significant and act as statement terminators, like semicolons.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// Parse the provided input as Quill source code and return the AST. This is
// a shorthand way to create a Lexer and Parser and then call Parse.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	var filename string
	for _, opt := range options {
		var probe Parser
		opt(&probe)
		if probe.filename != "" {
			filename = probe.filename
		}
	}
	l := lexer.New(input)
	if filename != "" {
		l.SetFilename(filename)
	}
	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name used in error messages and positions.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser, which guards
// against stack overflow on deeply nested input. The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser transforms a token stream into an AST.
type Parser struct {
	ctx context.Context

	l *lexer.Lexer

	prevToken token.Token
	curToken  token.Token
	peekToken token.Token

	errors []error

	// error count at the start of the current statement, used to detect
	// whether an error was added while parsing it
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename string
	depth    int
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}

	// Prime the token pump
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.FALSE, p.parseBool)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.FUNC, p.parseFunc)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.LBRACE, p.parseMapOrSet)
	p.registerPrefix(token.LBRACKET, p.parseList)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NIL, p.parseNil)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TRUE, p.parseBool)

	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.ASSIGN, p.parseAssign)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK_EQUALS, p.parseAssign)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.MINUS_EQUALS, p.parseAssign)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.PLUS_EQUALS, p.parseAssign)
	p.registerInfix(token.POW, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	p.registerInfix(token.SLASH_EQUALS, p.parseAssign)

	return p
}

// Parse the program that is provided via the lexer. Returns the AST and any
// errors encountered. If there are errors, the AST may be partial,
// containing only successfully parsed statements.
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	if p.hasErrors() {
		return nil, p.combinedErrors()
	}
	var statements []ast.Node
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			p.synchronize()
		}
		p.nextToken()
	}
	program := &ast.Program{Stmts: statements}
	if p.hasErrors() {
		return program, p.combinedErrors()
	}
	return program, nil
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// advanceToken moves to the next token without error checking. Used by
// synchronize during error recovery.
func (p *Parser) advanceToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, _ = p.l.Next()
}

// nextToken moves to the next token from the lexer, updating prevToken,
// curToken, and peekToken.
func (p *Parser) nextToken() error {
	var err error
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, err = p.l.Next()
	if err == nil {
		return nil
	}
	// Lexer errors are syntax errors and parsing is now considered broken
	p.addError(p.tokenError(p.peekToken, "%s", err.Error()))
	return err
}

// synchronize skips tokens until a statement boundary is reached, so that
// parsing can continue after an error and collect more errors.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if statementTerminators[p.curToken.Type] {
			return
		}
		switch p.curToken.Type {
		case token.LET, token.CONST, token.RETURN, token.IF, token.FOR,
			token.FUNC, token.TRY, token.THROW:
			return
		}
		prevPos := p.curToken.StartPosition
		p.advanceToken()
		if p.curToken.StartPosition == prevPos {
			return
		}
	}
}

func (p *Parser) parseStatementStrict() ast.Node {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	// The statement should end with a semicolon or the next token should be
	// a statement terminator
	if !p.curTokenIs(token.SEMICOLON) && !statementTerminators[p.peekToken.Type] {
		p.setTokenError(p.curToken, "unexpected token %q following statement", p.peekToken.Literal)
		return nil
	}
	return stmt
}

// parseNode parses an expression or expression-like statement using Pratt
// parsing with the registered prefix and infix functions.
func (p *Parser) parseNode(precedence int) ast.Node {
	if p.curToken.Type == token.EOF || p.hadNewError() {
		return nil
	}
	p.depth++
	if p.depth > p.maxDepth {
		p.setTokenError(p.curToken, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.setTokenError(p.curToken, "invalid syntax (unexpected %q)", p.curToken.Literal)
		return nil
	}
	leftExp := prefix()
	if p.hadNewError() || leftExp == nil {
		return nil
	}
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
		leftExp = infix(leftExp)
		if p.hadNewError() {
			break
		}
	}
	return leftExp
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	node := p.parseNode(precedence)
	if node == nil || p.hadNewError() {
		return nil
	}
	if expr, ok := node.(ast.Expr); ok {
		return expr
	}
	p.setTokenError(p.prevToken, "expected expression")
	return nil
}

func (p *Parser) illegalToken() ast.Node {
	return p.setTokenError(p.curToken, "illegal token %q", p.curToken.Literal)
}

// newIdent creates a new Ident node from a token.
func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek validates that the next token has the given type and advances
// if it does. Otherwise an error is recorded.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.setTokenError(p.peekToken, "unexpected %q while parsing %s (expected %q)",
		p.peekToken.Literal, context, string(t))
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// eatNewlines advances past any newline tokens at the current position.
func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}

// skipNewlinesAndPeek checks whether the given token type appears after
// optional newlines. If found, the newlines are consumed and true is
// returned with peekToken being the target. Otherwise no tokens are
// consumed.
func (p *Parser) skipNewlinesAndPeek(targetType token.Type) bool {
	if p.peekTokenIs(targetType) {
		return true
	}
	if !p.peekTokenIs(token.NEWLINE) {
		return false
	}
	savedCur := p.curToken
	savedPeek := p.peekToken
	savedLexer := p.l.SaveState()
	for p.peekTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			p.curToken = savedCur
			p.peekToken = savedPeek
			p.l.RestoreState(savedLexer)
			return false
		}
	}
	if p.peekTokenIs(targetType) {
		return true
	}
	p.curToken = savedCur
	p.peekToken = savedPeek
	p.l.RestoreState(savedLexer)
	return false
}

func (p *Parser) setTokenError(t token.Token, msg string, args ...interface{}) ast.Node {
	p.addError(p.tokenError(t, msg, args...))
	return nil
}

func (p *Parser) tokenError(t token.Token, msg string, args ...interface{}) error {
	return newParseError(fmt.Sprintf(msg, args...), p.filename, t, p.l.GetLineText(t))
}

func (p *Parser) addError(err error) {
	p.errors = append(p.errors, err)
}

func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}
