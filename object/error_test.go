package object_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/object"
)

func TestErrorMessage(t *testing.T) {
	e := object.Errorf("bad input: %d", 42)
	require.Equal(t, "bad input: 42", e.Message().Value())
	require.Equal(t, `error("bad input: 42")`, e.Inspect())
}

func TestErrorMessageAttr(t *testing.T) {
	e := object.NewError(errors.New("boom"))
	attr, ok := e.GetAttr("message")
	require.True(t, ok)
	require.Equal(t, object.NewString("boom"), attr)

	_, ok = e.GetAttr("missing")
	require.False(t, ok)
}

func TestErrorEquals(t *testing.T) {
	a := object.NewError(errors.New("boom"))
	b := object.NewError(errors.New("boom"))
	c := object.NewError(errors.New("other"))
	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.False(t, a.Equals(object.NewString("boom")))
}
