package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

func noGlobal(uint64) (*mtable.Table, bool) { return nil, false }

func TestContentHashIsStableAndOrderSensitive(t *testing.T) {
	planA := []Transformation{NewTable{Table: 1, Rows: 1, Cols: 1}, Constant{Table: 1, Value: value.FromInt64(value.I64, 5)}}
	planB := []Transformation{Constant{Table: 1, Value: value.FromInt64(value.I64, 5)}, NewTable{Table: 1, Rows: 1, Cols: 1}}
	require.Equal(t, ContentHash(planA), ContentHash(planA))
	require.NotEqual(t, ContentHash(planA), ContentHash(planB))
}

func TestRegisterTransformationsCreatesLocalTable(t *testing.T) {
	plan := []Transformation{
		NewTable{Table: 1, Rows: 1, Cols: 1},
		Constant{Table: 1, Value: value.FromInt64(value.I64, 5)},
	}
	blk := New(plan, nil)
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	_, ok := blk.LocalTables[1]
	require.True(t, ok)
}

func TestSolveAppliesConstantToLocalTable(t *testing.T) {
	plan := []Transformation{
		NewTable{Table: 1, Rows: 1, Cols: 1},
		Constant{Table: 1, Value: value.FromInt64(value.I64, 7)},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = mtable.New(1, 1, 1)
	blk.LocalTables[1].SetColumnKind(0, value.I64)
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)
	v, _, err := blk.LocalTables[1].Get(register.Index(0), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.Equal(t, int64(7), v.Int64())
}

func TestSolveDispatchesFunctionAddition(t *testing.T) {
	a := mtable.New(1, 1, 1)
	a.SetColumnKind(0, value.I64)
	require.NoError(t, a.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 2), noGlobal))
	b := mtable.New(2, 1, 1)
	b.SetColumnKind(0, value.I64)
	require.NoError(t, b.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 3), noGlobal))
	out := mtable.New(3, 1, 1)
	out.SetColumnKind(0, value.I64)

	plan := []Transformation{
		Function{
			NameHash: register.HashString56("math/add"),
			Args: []Arg{
				{NameHash: register.HashString56("lhs"), Table: 1, Row: register.All(), Col: register.All()},
				{NameHash: register.HashString56("rhs"), Table: 2, Row: register.All(), Col: register.All()},
			},
			Out: Out{Table: 3, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = a
	blk.LocalTables[2] = b
	blk.LocalTables[3] = out
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)

	v, _, err := out.Get(register.Index(0), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int64())
}

func TestWheneverAbortsPlanWhenNothingChanged(t *testing.T) {
	src := mtable.New(1, 1, 1)
	src.SetColumnKind(0, value.I64)
	require.NoError(t, src.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 1), noGlobal))
	src.ResetChanged()

	watched := register.New(1, register.Index(0), register.Index(0))
	plan := []Transformation{
		Whenever{Table: 1, Row: register.Index(0), Col: register.Index(0), Registers: []register.Register{watched}},
		Constant{Table: 1, Value: value.FromInt64(value.I64, 99)},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = src
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)

	v, _, err := src.Get(register.Index(0), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Int64(), "plan should abort before the Constant step runs")
}

func TestIsReadyRequiresAllInputRegistersDirtied(t *testing.T) {
	plan := []Transformation{
		Function{
			NameHash: register.HashString56("math/add"),
			Args: []Arg{
				{Table: 1, Row: register.All(), Col: register.All()},
				{Table: 2, Row: register.All(), Col: register.All()},
			},
			Out: Out{Table: 3, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	require.False(t, blk.IsReady())

	dirtied := []register.Register{register.New(1, register.All(), register.All())}
	blk.MarkReady(dirtied, func(uint64) *register.AliasBimap { return nil })
	require.False(t, blk.IsReady(), "only one of two inputs dirtied")

	dirtied = []register.Register{register.New(2, register.All(), register.All())}
	blk.MarkReady(dirtied, func(uint64) *register.AliasBimap { return nil })
	require.True(t, blk.IsReady())
}

func TestSolveDispatchesStatsSumColumn(t *testing.T) {
	src := mtable.New(1, 3, 1)
	src.SetColumnKind(0, value.I64)
	for r, v := range []int64{1, 2, 3} {
		require.NoError(t, src.Set(register.Index(uint64(r)), register.Index(0), value.FromInt64(value.I64, v), noGlobal))
	}
	out := mtable.New(2, 1, 1)
	out.SetColumnKind(0, value.I64)

	plan := []Transformation{
		Function{
			NameHash: register.HashString56("stats/sum"),
			Args: []Arg{
				{NameHash: register.HashString56("column"), Table: 1, Row: register.All(), Col: register.Index(0)},
			},
			Out: Out{Table: 2, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = src
	blk.LocalTables[2] = out
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)

	v, _, err := out.Get(register.Index(0), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.Equal(t, int64(6), v.Int64())
}

func TestSolveDispatchesTableRange(t *testing.T) {
	start := mtable.New(1, 1, 1)
	start.SetColumnKind(0, value.I64)
	require.NoError(t, start.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 1), noGlobal))
	end := mtable.New(2, 1, 1)
	end.SetColumnKind(0, value.I64)
	require.NoError(t, end.Set(register.Index(0), register.Index(0), value.FromInt64(value.I64, 5), noGlobal))
	out := mtable.New(3, 0, 0)

	plan := []Transformation{
		Function{
			NameHash: register.HashString56("table/range"),
			Args: []Arg{
				{NameHash: register.HashString56("start"), Table: 1, Row: register.Index(0), Col: register.Index(0)},
				{NameHash: register.HashString56("end"), Table: 2, Row: register.Index(0), Col: register.Index(0)},
			},
			Out: Out{Table: 3, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = start
	blk.LocalTables[2] = end
	blk.LocalTables[3] = out
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)
	require.Equal(t, 5, out.Rows())

	v, _, err := out.Get(register.Index(4), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int64())
}

func TestSolveDispatchesHorizontalConcatenateMismatch(t *testing.T) {
	a := mtable.New(1, 2, 1)
	a.SetColumnKind(0, value.I64)
	b := mtable.New(2, 3, 1)
	b.SetColumnKind(0, value.I64)
	out := mtable.New(3, 0, 0)

	plan := []Transformation{
		Function{
			NameHash: register.HashString56("table/horizontal-concatenate"),
			Args: []Arg{
				{Table: 1, Row: register.All(), Col: register.All()},
				{Table: 2, Row: register.All(), Col: register.All()},
			},
			Out: Out{Table: 3, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = a
	blk.LocalTables[2] = b
	blk.LocalTables[3] = out
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Error, blk.State)
	require.Len(t, blk.Errors, 1)
	require.Equal(t, mecherr.KindDimensionMismatch, blk.Errors[0].Kind)
}

func TestSolveDispatchesSetAny(t *testing.T) {
	src := mtable.New(1, 3, 1)
	src.SetColumnKind(0, value.Bool)
	require.NoError(t, src.Set(register.Index(0), register.Index(0), value.FromBool(false), noGlobal))
	require.NoError(t, src.Set(register.Index(1), register.Index(0), value.FromBool(true), noGlobal))
	out := mtable.New(2, 1, 1)
	out.SetColumnKind(0, value.Bool)

	plan := []Transformation{
		Function{
			NameHash: register.HashString56("set/any"),
			Args: []Arg{
				{NameHash: register.HashString56("column"), Table: 1, Row: register.All(), Col: register.Index(0)},
			},
			Out: Out{Table: 2, Row: register.All(), Col: register.All()},
		},
	}
	blk := New(plan, nil)
	blk.LocalTables[1] = src
	blk.LocalTables[2] = out
	require.NoError(t, blk.RegisterTransformations(noGlobal))
	blk.Solve(noGlobal)
	require.Equal(t, Done, blk.State)

	v, _, err := out.Get(register.Index(0), register.Index(0), noGlobal)
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestDisabledBlockIsNeverReady(t *testing.T) {
	blk := New(nil, nil)
	blk.Disable()
	require.False(t, blk.IsReady())
	blk.Enable()
	require.Equal(t, StateNew, blk.State)
}
