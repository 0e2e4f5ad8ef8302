package quill

import (
	"context"
	"testing"

	"github.com/quill-lang/quill/object"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		input string
		want  object.Object
	}{
		{"1 + 2", object.NewInt(3)},
		{"let x = 10\nx * x", object.NewInt(100)},
		{`"a" + "b"`, object.NewString("ab")},
		{"len([1, 2, 3])", object.NewInt(3)},
		{"[n * 2 for n in [1, 2, 3]]", object.NewList([]object.Object{
			object.NewInt(2),
			object.NewInt(4),
			object.NewInt(6),
		})},
		{"sprintf(\"%d-%d\", 1, 2)", object.NewString("1-2")},
	}
	for _, tc := range tests {
		result, err := Eval(ctx, tc.input)
		require.NoError(t, err, tc.input)
		require.Equal(t, tc.want, result, tc.input)
	}
}

func TestEvalSyntaxError(t *testing.T) {
	_, err := Eval(context.Background(), "let = 5", WithFilename("bad.quill"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "syntax error")
}

func TestCompileThenRun(t *testing.T) {
	ctx := context.Background()
	program, err := Compile("[x for x in range(4)]")
	require.NoError(t, err)
	require.NotEmpty(t, program.ID())

	// The same Program can run repeatedly with fresh state
	for i := 0; i < 3; i++ {
		result, err := Run(ctx, program)
		require.NoError(t, err)
		require.Equal(t, object.NewList([]object.Object{
			object.NewInt(0),
			object.NewInt(1),
			object.NewInt(2),
			object.NewInt(3),
		}), result)
	}
}

func TestWithGlobals(t *testing.T) {
	ctx := context.Background()
	result, err := Eval(ctx, "greeting + \" world\"", WithGlobals(map[string]object.Object{
		"greeting": object.NewString("hello"),
	}))
	require.NoError(t, err)
	require.Equal(t, object.NewString("hello world"), result)
}

func TestWithoutDefaultGlobals(t *testing.T) {
	_, err := Eval(context.Background(), "len([1])", WithoutDefaultGlobals())
	require.Error(t, err)
	require.Contains(t, err.Error(), "len")
}

func TestProgramMetadata(t *testing.T) {
	program, err := Compile("let a = 1", WithFilename("meta.quill"))
	require.NoError(t, err)
	require.Equal(t, "let a = 1", program.Source())
	require.Equal(t, "meta.quill", program.Filename())
	require.Contains(t, program.GlobalNames(), "a")
}
