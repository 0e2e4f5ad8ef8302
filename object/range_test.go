package object

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectRange(t *testing.T, r *Range) []int64 {
	t.Helper()
	ctx := context.Background()
	var values []int64
	it := r.Iter()
	for {
		obj, ok := it.Next(ctx)
		if !ok {
			break
		}
		values = append(values, obj.(*Int).Value())
	}
	return values
}

func TestRangeIteration(t *testing.T) {
	r, err := NewRange(0, 5, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2, 3, 4}, collectRange(t, r))
}

func TestRangeWithStep(t *testing.T) {
	r, err := NewRange(1, 10, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 4, 7}, collectRange(t, r))
}

func TestRangeNegativeStep(t *testing.T) {
	r, err := NewRange(5, 0, -1)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4, 3, 2, 1}, collectRange(t, r))
}

func TestRangeEmpty(t *testing.T) {
	r, err := NewRange(3, 3, 1)
	require.NoError(t, err)
	require.Empty(t, collectRange(t, r))
}

func TestRangeZeroStep(t *testing.T) {
	_, err := NewRange(0, 10, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step must not be zero")
}

func TestRangeInspect(t *testing.T) {
	r, err := NewRange(0, 5, 1)
	require.NoError(t, err)
	require.Equal(t, "range(0, 5)", r.Inspect())

	r, err = NewRange(0, 10, 2)
	require.NoError(t, err)
	require.Equal(t, "range(0, 10, 2)", r.Inspect())
}

func TestRangeEquals(t *testing.T) {
	a, _ := NewRange(0, 5, 1)
	b, _ := NewRange(0, 5, 1)
	c, _ := NewRange(0, 5, 2)
	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.False(t, a.Equals(NewInt(1)))
}
