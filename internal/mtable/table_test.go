package mtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

func noResolve(uint64) (*Table, bool) { return nil, false }

func TestNewTableShapeInvariant(t *testing.T) {
	tbl := New(1, 3, 2)
	require.Equal(t, 3, tbl.Rows())
	require.Equal(t, 2, tbl.Cols())
	for i := 0; i < tbl.Cols(); i++ {
		require.Equal(t, 3, tbl.Column(i).Len())
	}
}

func TestSetOnlyMarksChangedOnDiff(t *testing.T) {
	tbl := New(1, 2, 1)
	tbl.SetColumnKind(0, value.I64)
	err := tbl.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 5), noResolve)
	require.NoError(t, err)
	v, changed, err := tbl.Get(register.Index(0), register.Index(0), noResolve)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(5), v.Int64())

	tbl.ResetChanged()
	require.NoError(t, tbl.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 5), noResolve))
	_, changed, err = tbl.Get(register.Index(0), register.Index(0), noResolve)
	require.NoError(t, err)
	require.False(t, changed, "rewriting the same value should not mark changed")
}

func TestResizePreservesKindAndExtendsWithEmpty(t *testing.T) {
	tbl := New(1, 1, 1)
	tbl.SetColumnKind(0, value.I64)
	tbl.Resize(3, 2)
	require.Equal(t, value.I64, tbl.ColumnKind(0))
	require.Equal(t, value.Empty, tbl.ColumnKind(1))
	v, _, err := tbl.Get(register.Index(2), register.Index(1), noResolve)
	require.NoError(t, err)
	require.Equal(t, value.Empty, v.Kind)
}

func TestAliasColumnResolution(t *testing.T) {
	tbl := New(1, 2, 2)
	require.NoError(t, tbl.SetColumnAlias(1, 0xFEED, "y"))
	tbl.SetColumnKind(1, value.I64)
	require.NoError(t, tbl.Set(register.Index(0), register.Alias(0xFEED), value.FromInt64(value.I64, 9), noResolve))
	v, _, err := tbl.Get(register.Index(0), register.Index(1), noResolve)
	require.NoError(t, err)
	require.Equal(t, int64(9), v.Int64())
}

func TestDynamicTableGrowsOnWrite(t *testing.T) {
	tbl := New(1, 0, 0)
	tbl.SetDynamic(true)
	err := tbl.Set(register.Index(2), register.Index(0), value.FromInt64(value.I64, 1), noResolve)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Rows())
	require.Equal(t, 1, tbl.Cols())
}

func TestGetLinearOnSingleColumn(t *testing.T) {
	tbl := New(1, 3, 1)
	tbl.SetColumnKind(0, value.I64)
	require.NoError(t, tbl.Set(register.Index(1), register.Index(0), value.FromInt64(value.I64, 77), noResolve))
	v, _, err := tbl.GetLinear(1)
	require.NoError(t, err)
	require.Equal(t, int64(77), v.Int64())
}

func TestAllSelectorCoversEveryPosition(t *testing.T) {
	tbl := New(1, 2, 2)
	tbl.SetColumnKind(0, value.I64)
	tbl.SetColumnKind(1, value.I64)
	require.NoError(t, tbl.Set(register.All(), register.Index(0), value.FromInt64(value.I64, 3), noResolve))
	for r := 0; r < 2; r++ {
		v, _, err := tbl.Get(register.Index(r), register.Index(0), noResolve)
		require.NoError(t, err)
		require.Equal(t, int64(3), v.Int64())
	}
}

func TestResetChanged(t *testing.T) {
	tbl := New(1, 1, 1)
	tbl.SetColumnKind(0, value.I64)
	require.NoError(t, tbl.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 1), noResolve))
	require.True(t, tbl.AnyChanged())
	tbl.ResetChanged()
	require.False(t, tbl.AnyChanged())
}
