package object_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/object"
)

func TestMapInsertionOrder(t *testing.T) {
	m := object.NewEmptyMap()
	require.NoError(t, m.Set(object.NewString("b"), object.NewInt(2)))
	require.NoError(t, m.Set(object.NewString("a"), object.NewInt(1)))
	require.NoError(t, m.Set(object.NewString("c"), object.NewInt(3)))

	require.Equal(t, `{"b": 2, "a": 1, "c": 3}`, m.Inspect())

	// Overwriting a key keeps its original position
	require.NoError(t, m.Set(object.NewString("a"), object.NewInt(10)))
	require.Equal(t, `{"b": 2, "a": 10, "c": 3}`, m.Inspect())
}

func TestMapGetAndContains(t *testing.T) {
	m := object.NewEmptyMap()
	require.NoError(t, m.Set(object.NewString("k"), object.NewInt(1)))

	value, found := m.Get(object.NewString("k"))
	require.True(t, found)
	require.Equal(t, object.NewInt(1), value)

	_, found = m.Get(object.NewString("missing"))
	require.False(t, found)

	require.Equal(t, object.True, m.Contains(object.NewString("k")))
	require.Equal(t, object.False, m.Contains(object.NewInt(99)))
}

func TestMapUnhashableKey(t *testing.T) {
	m := object.NewEmptyMap()
	err := m.Set(object.NewList(nil), object.NewInt(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unhashable map key")
}

func TestMapIterInsertionOrder(t *testing.T) {
	m, err := object.NewMap([]object.Object{
		object.NewString("x"), object.NewInt(1),
		object.NewString("y"), object.NewInt(2),
	})
	require.NoError(t, err)

	ctx := context.Background()
	it := m.Iter()
	var keys []string
	for {
		key, ok := it.Next(ctx)
		if !ok {
			break
		}
		keys = append(keys, key.(*object.String).Value())
	}
	require.Equal(t, []string{"x", "y"}, keys)
}

func TestMapOddPairCount(t *testing.T) {
	_, err := object.NewMap([]object.Object{object.NewString("k")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "even number of items")
}
