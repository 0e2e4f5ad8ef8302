package object

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/op"
)

func TestCompareInts(t *testing.T) {
	a := NewInt(3)
	b := NewInt(7)

	result, err := Compare(op.LessThan, a, b)
	require.NoError(t, err)
	require.Equal(t, True, result)

	result, err = Compare(op.GreaterThanOrEqual, a, b)
	require.NoError(t, err)
	require.Equal(t, False, result)
}

func TestCompareEqualityAnyType(t *testing.T) {
	// Equality does not require the operands to be comparable.
	a := NewList([]Object{NewInt(1), NewInt(2)})
	b := NewList([]Object{NewInt(1), NewInt(2)})

	result, err := Compare(op.Equal, a, b)
	require.NoError(t, err)
	require.Equal(t, True, result)

	result, err = Compare(op.NotEqual, a, NewInt(1))
	require.NoError(t, err)
	require.Equal(t, True, result)
}

func TestCompareNotComparable(t *testing.T) {
	a := NewList([]Object{})
	_, err := Compare(op.LessThan, a, NewInt(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected a comparable object")
}

func TestCompareMixedNumeric(t *testing.T) {
	result, err := Compare(op.LessThan, NewInt(1), NewFloat(1.5))
	require.NoError(t, err)
	require.Equal(t, True, result)
}

func TestBinaryOpArithmetic(t *testing.T) {
	result, err := BinaryOp(op.Add, NewInt(2), NewInt(3))
	require.NoError(t, err)
	require.Equal(t, NewInt(5), result)

	result, err = BinaryOp(op.Power, NewInt(2), NewInt(10))
	require.NoError(t, err)
	require.Equal(t, NewInt(1024), result)
}

func TestBinaryOpStringConcat(t *testing.T) {
	result, err := BinaryOp(op.Add, NewString("foo"), NewString("bar"))
	require.NoError(t, err)
	require.Equal(t, NewString("foobar"), result)
}

func TestBinaryOpAndOr(t *testing.T) {
	// And returns the first falsy operand, or the second operand.
	result, err := BinaryOp(op.And, False, NewInt(1))
	require.NoError(t, err)
	require.Equal(t, False, result)

	result, err = BinaryOp(op.And, True, NewInt(1))
	require.NoError(t, err)
	require.Equal(t, NewInt(1), result)

	// Or returns the first truthy operand, or the second operand.
	result, err = BinaryOp(op.Or, NewInt(1), NewInt(2))
	require.NoError(t, err)
	require.Equal(t, NewInt(1), result)

	result, err = BinaryOp(op.Or, False, NewInt(2))
	require.NoError(t, err)
	require.Equal(t, NewInt(2), result)
}

func TestDivisionByZero(t *testing.T) {
	_, err := BinaryOp(op.Divide, NewInt(10), NewInt(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")

	_, err = BinaryOp(op.Modulo, NewInt(10), NewInt(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestUnsupportedOperation(t *testing.T) {
	_, err := BinaryOp(op.Subtract, NewString("a"), NewString("b"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported operation")
}
