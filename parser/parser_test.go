package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/quill-lang/quill/ast"
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/lexer"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(context.Background(), input)
	require.NoError(t, err)
	return program
}

func parseStatement(t *testing.T, input string) ast.Node {
	t.Helper()
	program := parse(t, input)
	require.Len(t, program.Stmts, 1)
	return program.Stmts[0]
}

func TestLetStatement(t *testing.T) {
	stmt := parseStatement(t, "let x = 5")
	let, ok := stmt.(*ast.Let)
	require.True(t, ok)
	require.Equal(t, "x", let.Name.Name)
	value, ok := let.Value.(*ast.Int)
	require.True(t, ok)
	require.Equal(t, int64(5), value.Value)
}

func TestConstStatement(t *testing.T) {
	stmt := parseStatement(t, `const name = "quill"`)
	c, ok := stmt.(*ast.Const)
	require.True(t, ok)
	require.Equal(t, "name", c.Name.Name)
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-a * b", "((-a) * b)"},
		{"!ok", "(!ok)"},
		{"a + b - c", "((a + b) - c)"},
		{"a * b / c", "((a * b) / c)"},
		{"a % b + c", "((a % b) + c)"},
		{"a ** b * c", "((a ** b) * c)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a && b || c", "((a && b) || c)"},
		{"a + xs[0]", "(a + xs[0])"},
		{"f(a, b) + 1", "(f(a, b) + 1)"},
	}
	for _, tc := range tests {
		stmt := parseStatement(t, tc.input)
		require.Equal(t, tc.want, stmt.String(), tc.input)
	}
}

func TestAssignStatements(t *testing.T) {
	for _, op := range []string{"=", "+=", "-=", "*=", "/="} {
		stmt := parseStatement(t, "x "+op+" 2")
		assign, ok := stmt.(*ast.Assign)
		require.True(t, ok, op)
		require.Equal(t, op, assign.Op)
		require.Equal(t, "x", assign.Name.Name)
	}
}

func TestIndexAssignStatement(t *testing.T) {
	stmt := parseStatement(t, "xs[0] = 9")
	assign, ok := stmt.(*ast.Assign)
	require.True(t, ok)
	require.Nil(t, assign.Name)
	require.NotNil(t, assign.Index)
}

func TestFuncLiteral(t *testing.T) {
	stmt := parseStatement(t, "func add(a, b) { return a + b }")
	fn, ok := stmt.(*ast.Func)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "a", fn.Params[0].Name)
	require.Equal(t, "b", fn.Params[1].Name)
}

func TestForStatement(t *testing.T) {
	stmt := parseStatement(t, "for x in xs { x }")
	loop, ok := stmt.(*ast.For)
	require.True(t, ok)
	require.Equal(t, "x", loop.Var.Name)
	require.Equal(t, "xs", loop.X.String())
}

func TestIfElseStatement(t *testing.T) {
	stmt := parseStatement(t, "if a { 1 } else if b { 2 } else { 3 }")
	cond, ok := stmt.(*ast.If)
	require.True(t, ok)
	alt, ok := cond.Alternative.(*ast.If)
	require.True(t, ok)
	require.NotNil(t, alt.Alternative)
}

func TestTryCatch(t *testing.T) {
	stmt := parseStatement(t, "try { 1 } catch e { 2 }")
	try, ok := stmt.(*ast.Try)
	require.True(t, ok)
	require.NotNil(t, try.CatchIdent)
	require.Equal(t, "e", try.CatchIdent.Name)

	stmt = parseStatement(t, "try { 1 } catch { 2 }")
	try, ok = stmt.(*ast.Try)
	require.True(t, ok)
	require.Nil(t, try.CatchIdent)
}

func TestContainerLiterals(t *testing.T) {
	stmt := parseStatement(t, "[1, 2, 3]")
	list, ok := stmt.(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Items, 3)

	stmt = parseStatement(t, `{"a": 1, "b": 2}`)
	m, ok := stmt.(*ast.Map)
	require.True(t, ok)
	require.Len(t, m.Items, 2)

	stmt = parseStatement(t, "{1, 2}")
	s, ok := stmt.(*ast.Set)
	require.True(t, ok)
	require.Len(t, s.Items, 2)

	// Empty braces are an empty map, never a set
	stmt = parseStatement(t, "{}")
	m, ok = stmt.(*ast.Map)
	require.True(t, ok)
	require.Empty(t, m.Items)
}

func TestTrailingCommas(t *testing.T) {
	stmt := parseStatement(t, "[1, 2,]")
	list, ok := stmt.(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Items, 2)

	stmt = parseStatement(t, "{1, 2,}")
	s, ok := stmt.(*ast.Set)
	require.True(t, ok)
	require.Len(t, s.Items, 2)

	stmt = parseStatement(t, `{"a": 1,}`)
	m, ok := stmt.(*ast.Map)
	require.True(t, ok)
	require.Len(t, m.Items, 1)
}

func TestListComprehension(t *testing.T) {
	stmt := parseStatement(t, "[x * 2 for x in xs if x > 1]")
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Equal(t, ast.ListComp, comp.Kind)
	require.Nil(t, comp.Key)
	require.Equal(t, "(x * 2)", comp.Value.String())
	require.Len(t, comp.Clauses, 2)

	fc, ok := comp.Clauses[0].(*ast.ForClause)
	require.True(t, ok)
	require.Equal(t, "x", fc.Var.Name)
	require.Equal(t, "xs", fc.X.String())

	ic, ok := comp.Clauses[1].(*ast.IfClause)
	require.True(t, ok)
	require.Equal(t, "(x > 1)", ic.Cond.String())
}

func TestSetComprehension(t *testing.T) {
	stmt := parseStatement(t, "{x % 3 for x in xs}")
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Equal(t, ast.SetComp, comp.Kind)
	require.Nil(t, comp.Key)
}

func TestMapComprehension(t *testing.T) {
	stmt := parseStatement(t, "{x: x * x for x in xs}")
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Equal(t, ast.MapComp, comp.Kind)
	require.Equal(t, "x", comp.Key.String())
	require.Equal(t, "(x * x)", comp.Value.String())
}

// Clauses keep their source order, with for and if clauses interleaved.
func TestInterleavedClauses(t *testing.T) {
	stmt := parseStatement(t, "[x + y for x in xs if x > 0 for y in ys if y > 0]")
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Len(t, comp.Clauses, 4)
	_, ok = comp.Clauses[0].(*ast.ForClause)
	require.True(t, ok)
	_, ok = comp.Clauses[1].(*ast.IfClause)
	require.True(t, ok)
	_, ok = comp.Clauses[2].(*ast.ForClause)
	require.True(t, ok)
	_, ok = comp.Clauses[3].(*ast.IfClause)
	require.True(t, ok)

	vars := comp.Vars()
	require.Len(t, vars, 2)
	require.Equal(t, "x", vars[0].Name)
	require.Equal(t, "y", vars[1].Name)
}

func TestComprehensionVarsDeduplicated(t *testing.T) {
	stmt := parseStatement(t, "[x for x in xs for x in ys]")
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Len(t, comp.Vars(), 1)
}

func TestMultilineComprehension(t *testing.T) {
	input := `[
		x * 2
		for x in xs
		if x > 1
	]`
	stmt := parseStatement(t, input)
	comp, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	require.Equal(t, ast.ListComp, comp.Kind)
	require.Len(t, comp.Clauses, 2)
}

func TestNestedComprehension(t *testing.T) {
	stmt := parseStatement(t, "[[y for y in x] for x in xs]")
	outer, ok := stmt.(*ast.Comprehension)
	require.True(t, ok)
	inner, ok := outer.Value.(*ast.Comprehension)
	require.True(t, ok)
	require.Equal(t, "y", inner.Vars()[0].Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"[1, 2", "expected \"]\""},
		{"{1, 2", "expected \"}\""},
		{"let = 5", "unexpected"},
		{"1 2", "unexpected token"},
		{"[x for in xs]", "unexpected"},
		{"for x { }", "unexpected"},
	}
	for _, tc := range tests {
		_, err := Parse(context.Background(), tc.input)
		require.Error(t, err, tc.input)
		require.Contains(t, err.Error(), tc.message, tc.input)
	}
}

// The parser recovers at statement boundaries and reports multiple errors.
func TestErrorRecovery(t *testing.T) {
	input := "let = 1\nlet = 2\nlet ok = 3"
	p := New(lexer.New(input))
	program, err := p.Parse(context.Background())
	require.Error(t, err)
	require.GreaterOrEqual(t, len(p.Errors()), 2)
	require.NotNil(t, program)
}

func TestErrorLocation(t *testing.T) {
	_, err := Parse(context.Background(), "let x =\n", WithFilename("main.quill"))
	require.Error(t, err)
	var structured *errz.StructuredError
	require.True(t, errors.As(err, &structured))
	require.Equal(t, "main.quill", structured.Location.Filename)
	require.Greater(t, structured.Location.Line, 0)
}

func TestMaxDepth(t *testing.T) {
	input := "((((((1))))))"
	_, err := Parse(context.Background(), input, WithMaxDepth(3))
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth exceeded")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "let x = 1\nlet y = 2")
	require.ErrorIs(t, err, context.Canceled)
}
