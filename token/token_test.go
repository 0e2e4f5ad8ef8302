package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupIdentifier(t *testing.T) {
	for keyword, typ := range keywords {
		require.Equal(t, typ, LookupIdentifier(keyword))
		// Keywords are case sensitive, so uppercase forms are identifiers
		require.Equal(t, IDENT, LookupIdentifier(strings.ToUpper(keyword)))
	}
	require.Equal(t, IDENT, LookupIdentifier("foo"))
}

func TestPositionNumbering(t *testing.T) {
	tok := Token{
		Type:          IDENT,
		Literal:       "foo",
		StartPosition: Position{Line: 2, Column: 0},
	}
	// Line and Column are 0-indexed; the reported numbers are 1-indexed
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())
}

func TestPositionAdvance(t *testing.T) {
	pos := Position{Char: 10, Line: 1, Column: 4}
	moved := pos.Advance(3)
	require.Equal(t, 13, moved.Char)
	require.Equal(t, 7, moved.Column)
	require.Equal(t, 1, moved.Line)
}

func TestPositionIsValid(t *testing.T) {
	require.False(t, NoPos.IsValid())
	require.True(t, Position{Line: 1}.IsValid())
	require.True(t, Position{File: "main.quill"}.IsValid())
}
