// Package lexer transforms Quill source code into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"

	"github.com/quill-lang/quill/token"
)

// Lexer is used to tokenize an input string of Quill source code. Create one
// with New and then call Next repeatedly until an EOF token is returned.
type Lexer struct {
	input     string
	position  int // current byte offset
	line      int // current 0-indexed line
	lineStart int // byte offset of the start of the current line
	column    int // current 0-indexed column
	filename  string
}

// New returns a Lexer for the given input string.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// SetFilename sets the filename associated with the input, which is used in
// token positions and error messages.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the filename associated with the input.
func (l *Lexer) Filename() string {
	return l.filename
}

// GetLineText returns the line of source text containing the given token.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start < 0 || start >= len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end == -1 {
		return l.input[start:]
	}
	return l.input[start : start+end]
}

// State is an opaque snapshot of lexer progress, used by the parser to
// backtrack over lookahead that crosses newlines.
type State struct {
	position  int
	line      int
	lineStart int
	column    int
}

// SaveState captures the current lexer position.
func (l *Lexer) SaveState() State {
	return State{
		position:  l.position,
		line:      l.line,
		lineStart: l.lineStart,
		column:    l.column,
	}
}

// RestoreState rewinds the lexer to a previously saved position.
func (l *Lexer) RestoreState(s State) {
	l.position = s.position
	l.line = s.line
	l.lineStart = s.lineStart
	l.column = s.column
}

// SyntaxError describes an error at a specific location in the input.
type SyntaxError struct {
	Message  string
	Position token.Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s (%s:%d:%d)",
		e.Message, e.Position.File, e.Position.LineNumber(), e.Position.ColumnNumber())
}

func (l *Lexer) pos() token.Position {
	return token.Position{
		Char:      l.position,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.column,
		File:      l.filename,
	}
}

func (l *Lexer) syntaxError(format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Position: l.pos()}
}

func (l *Lexer) peek() byte {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.position+offset >= len(l.input) {
		return 0
	}
	return l.input[l.position+offset]
}

func (l *Lexer) advance() byte {
	ch := l.input[l.position]
	l.position++
	if ch == '\n' {
		l.line++
		l.lineStart = l.position
		l.column = 0
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) newToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.pos(),
	}
}

// Next returns the next token from the input, advancing the lexer. Newlines
// are significant and are returned as NEWLINE tokens, since they can act as
// statement terminators.
func (l *Lexer) Next() (token.Token, error) {
	l.skipSpacesAndComments()
	start := l.pos()
	if l.position >= len(l.input) {
		return l.newToken(token.EOF, "", start), nil
	}
	ch := l.peek()
	switch {
	case ch == '\n':
		l.advance()
		return l.newToken(token.NEWLINE, "\n", start), nil
	case isLetter(ch):
		literal := l.readIdentifier()
		return l.newToken(token.LookupIdentifier(literal), literal, start), nil
	case isDigit(ch):
		return l.readNumber(start)
	case ch == '"' || ch == '\'':
		return l.readString(start)
	}
	l.advance()
	two := string(ch) + string(l.peek())
	switch two {
	case "==", "!=", "<=", ">=", "&&", "||", "+=", "-=", "*=", "/=", "**":
		l.advance()
		return l.newToken(token.Type(two), two, start), nil
	}
	switch ch {
	case '=':
		return l.newToken(token.ASSIGN, "=", start), nil
	case '+':
		return l.newToken(token.PLUS, "+", start), nil
	case '-':
		return l.newToken(token.MINUS, "-", start), nil
	case '*':
		return l.newToken(token.ASTERISK, "*", start), nil
	case '/':
		return l.newToken(token.SLASH, "/", start), nil
	case '%':
		return l.newToken(token.MOD, "%", start), nil
	case '!':
		return l.newToken(token.BANG, "!", start), nil
	case '<':
		return l.newToken(token.LT, "<", start), nil
	case '>':
		return l.newToken(token.GT, ">", start), nil
	case '(':
		return l.newToken(token.LPAREN, "(", start), nil
	case ')':
		return l.newToken(token.RPAREN, ")", start), nil
	case '[':
		return l.newToken(token.LBRACKET, "[", start), nil
	case ']':
		return l.newToken(token.RBRACKET, "]", start), nil
	case '{':
		return l.newToken(token.LBRACE, "{", start), nil
	case '}':
		return l.newToken(token.RBRACE, "}", start), nil
	case ',':
		return l.newToken(token.COMMA, ",", start), nil
	case ':':
		return l.newToken(token.COLON, ":", start), nil
	case ';':
		return l.newToken(token.SEMICOLON, ";", start), nil
	}
	tok := l.newToken(token.ILLEGAL, string(ch), start)
	return tok, l.syntaxError("unexpected character %q", string(ch))
}

// skipSpacesAndComments advances past spaces, tabs, carriage returns, and
// comments. Newlines are not skipped since they are significant.
func (l *Lexer) skipSpacesAndComments() {
	for l.position < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '#':
			for l.position < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case '/':
			if l.peekAt(1) == '/' {
				for l.position < len(l.input) && l.peek() != '\n' {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for l.position < len(l.input) && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	startOffset := l.position
	isFloat := false
	for l.position < len(l.input) {
		ch := l.peek()
		if isDigit(ch) || ch == '_' {
			l.advance()
		} else if ch == '.' && !isFloat && isDigit(l.peekAt(1)) {
			isFloat = true
			l.advance()
		} else {
			break
		}
	}
	literal := strings.ReplaceAll(l.input[startOffset:l.position], "_", "")
	if isFloat {
		return l.newToken(token.FLOAT, literal, start), nil
	}
	return l.newToken(token.INT, literal, start), nil
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.position >= len(l.input) {
			return l.newToken(token.ILLEGAL, sb.String(), start),
				l.syntaxError("unterminated string literal")
		}
		ch := l.advance()
		if ch == quote {
			break
		}
		if ch == '\\' {
			if l.position >= len(l.input) {
				return l.newToken(token.ILLEGAL, sb.String(), start),
					l.syntaxError("unterminated string literal")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			default:
				return l.newToken(token.ILLEGAL, sb.String(), start),
					l.syntaxError("invalid escape sequence \\%s", string(esc))
			}
			continue
		}
		sb.WriteByte(ch)
	}
	return l.newToken(token.STRING, sb.String(), start), nil
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
