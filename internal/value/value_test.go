package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddPreservesKind(t *testing.T) {
	a := FromInt64(I64, 3)
	b := FromInt64(I64, 4)
	r, err := Add(a, b)
	require.NoError(t, err)
	require.Equal(t, I64, r.Kind)
	require.Equal(t, int64(7), r.Int64())
}

func TestAddMixedKindFails(t *testing.T) {
	a := FromInt64(I64, 3)
	b := FromUint64(U32, 4)
	_, err := Add(a, b)
	require.Error(t, err)
}

func TestDivideByZero(t *testing.T) {
	_, err := Div(FromInt64(I64, 1), FromInt64(I64, 0))
	require.Error(t, err)
}

func TestEmptyPropagates(t *testing.T) {
	r, err := Add(EmptyValue, FromInt64(I64, 4))
	require.NoError(t, err)
	require.Equal(t, Empty, r.Kind)
}

func TestEmptyNeverEqual(t *testing.T) {
	require.False(t, valuesEqual(EmptyValue, EmptyValue))
}

func TestWideArithmetic(t *testing.T) {
	a := FromInt64(I128, 1<<40)
	b := FromInt64(I128, 3)
	r, err := Mul(a, b)
	require.NoError(t, err)
	require.Equal(t, I128, r.Kind)
	require.Equal(t, int64(3<<40), r.Int64())
}

func TestNegSigned(t *testing.T) {
	r, err := Neg(FromInt64(I32, 5))
	require.NoError(t, err)
	require.Equal(t, int64(-5), r.Int64())
}

func TestCompareOps(t *testing.T) {
	a := FromInt64(I64, 1)
	b := FromInt64(I64, 2)
	gt, err := Greater(b, a)
	require.NoError(t, err)
	require.True(t, gt.Bool())

	lt, err := Less(a, b)
	require.NoError(t, err)
	require.True(t, lt.Bool())

	eq, err := Equal(a, a)
	require.NoError(t, err)
	require.True(t, eq.Bool())
}

func TestDomainMismatch(t *testing.T) {
	kg := Value{Kind: F64, Unit: 3, f: 1}
	g := Value{Kind: F64, Unit: 6, f: 1000}
	_, err := Add(kg, g)
	require.Error(t, err)
}
