package lexer

import (
	"testing"

	"github.com/quill-lang/quill/token"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func TestTokenStream(t *testing.T) {
	input := `let total = 0
for x in [1, 2] {
	total += x ** 2
}`
	want := []struct {
		typ     token.Type
		literal string
	}{
		{token.LET, "let"},
		{token.IDENT, "total"},
		{token.ASSIGN, "="},
		{token.INT, "0"},
		{token.NEWLINE, "\n"},
		{token.FOR, "for"},
		{token.IDENT, "x"},
		{token.IN, "in"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "total"},
		{token.PLUS_EQUALS, "+="},
		{token.IDENT, "x"},
		{token.POW, "**"},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}
	tokens := tokenize(t, input)
	require.Len(t, tokens, len(want))
	for i, w := range want {
		require.Equal(t, w.typ, tokens[i].Type, "token %d", i)
		require.Equal(t, w.literal, tokens[i].Literal, "token %d", i)
	}
}

func TestKeywords(t *testing.T) {
	input := "let const func return if else for in break continue try catch throw true false nil"
	wantTypes := []token.Type{
		token.LET, token.CONST, token.FUNC, token.RETURN, token.IF, token.ELSE,
		token.FOR, token.IN, token.BREAK, token.CONTINUE, token.TRY, token.CATCH,
		token.THROW, token.TRUE, token.FALSE, token.NIL, token.EOF,
	}
	tokens := tokenize(t, input)
	require.Len(t, tokens, len(wantTypes))
	for i, typ := range wantTypes {
		require.Equal(t, typ, tokens[i].Type)
	}
}

func TestOperators(t *testing.T) {
	input := "== != <= >= && || += -= *= /= ** = + - * / % ! < >"
	wantTypes := []token.Type{
		token.EQ, token.NOT_EQ, token.LT_EQUALS, token.GT_EQUALS, token.AND,
		token.OR, token.PLUS_EQUALS, token.MINUS_EQUALS, token.ASTERISK_EQUALS,
		token.SLASH_EQUALS, token.POW, token.ASSIGN, token.PLUS, token.MINUS,
		token.ASTERISK, token.SLASH, token.MOD, token.BANG, token.LT, token.GT,
		token.EOF,
	}
	tokens := tokenize(t, input)
	require.Len(t, tokens, len(wantTypes))
	for i, typ := range wantTypes {
		require.Equal(t, typ, tokens[i].Type)
	}
}

func TestNumbers(t *testing.T) {
	tokens := tokenize(t, "42 3.14 1_000_000 10.5")
	require.Equal(t, token.INT, tokens[0].Type)
	require.Equal(t, "42", tokens[0].Literal)
	require.Equal(t, token.FLOAT, tokens[1].Type)
	require.Equal(t, "3.14", tokens[1].Literal)
	require.Equal(t, token.INT, tokens[2].Type)
	require.Equal(t, "1000000", tokens[2].Literal)
	require.Equal(t, token.FLOAT, tokens[3].Type)
	require.Equal(t, "10.5", tokens[3].Literal)
}

func TestStrings(t *testing.T) {
	tokens := tokenize(t, `"hello" 'world' "a\nb" "say \"hi\""`)
	require.Equal(t, "hello", tokens[0].Literal)
	require.Equal(t, "world", tokens[1].Literal)
	require.Equal(t, "a\nb", tokens[2].Literal)
	require.Equal(t, `say "hi"`, tokens[3].Literal)
	for i := 0; i < 4; i++ {
		require.Equal(t, token.STRING, tokens[i].Type)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"oops`)
	tok, err := l.Next()
	require.Error(t, err)
	require.Equal(t, token.ILLEGAL, tok.Type)
	require.Contains(t, err.Error(), "unterminated string literal")
}

func TestInvalidEscape(t *testing.T) {
	l := New(`"a\qb"`)
	_, err := l.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid escape sequence \q`)
}

func TestComments(t *testing.T) {
	input := `1 # trailing comment
// full line comment
2`
	tokens := tokenize(t, input)
	wantTypes := []token.Type{
		token.INT, token.NEWLINE, token.NEWLINE, token.INT, token.EOF,
	}
	require.Len(t, tokens, len(wantTypes))
	for i, typ := range wantTypes {
		require.Equal(t, typ, tokens[i].Type)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let x = @")
	var err error
	var tok token.Token
	for i := 0; i < 3; i++ {
		tok, err = l.Next()
		require.NoError(t, err)
	}
	tok, err = l.Next()
	require.Error(t, err)
	require.Equal(t, token.ILLEGAL, tok.Type)
	require.Contains(t, err.Error(), `unexpected character "@"`)
}

func TestPositions(t *testing.T) {
	l := New("a\n  b")
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, "a", tok.Literal)
	require.Equal(t, 1, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())

	_, err = l.Next() // newline
	require.NoError(t, err)

	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, "b", tok.Literal)
	require.Equal(t, 2, tok.StartPosition.LineNumber())
	require.Equal(t, 3, tok.StartPosition.ColumnNumber())
}

func TestSaveAndRestoreState(t *testing.T) {
	l := New("a b c")
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, "a", tok.Literal)

	saved := l.SaveState()
	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, "b", tok.Literal)

	l.RestoreState(saved)
	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, "b", tok.Literal)
}

func TestGetLineText(t *testing.T) {
	l := New("let x = 1\nlet y = 2")
	var tokens []token.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	require.Equal(t, "let x = 1", l.GetLineText(tokens[0]))
	// The "y" identifier is on the second line
	require.Equal(t, "let y = 2", l.GetLineText(tokens[6]))
}
