package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mech-lang/core/internal/block"
	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

const (
	ballTable  = 10
	gravTable  = 11
	timerTable = 12
)

func seedBallisticTables(t *testing.T, c *Core) {
	t.Helper()
	err := c.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.NewTable{Table: ballTable, Rows: 1, Cols: 4},
		change.NewTable{Table: gravTable, Rows: 1, Cols: 1},
		change.NewTable{Table: timerTable, Rows: 1, Cols: 2},
		change.SetColumnKind{Table: ballTable, Ix: 0, Kind: value.I64},
		change.SetColumnKind{Table: ballTable, Ix: 1, Kind: value.I64},
		change.SetColumnKind{Table: ballTable, Ix: 2, Kind: value.I64},
		change.SetColumnKind{Table: ballTable, Ix: 3, Kind: value.I64},
		change.SetColumnKind{Table: gravTable, Ix: 0, Kind: value.I64},
		change.SetColumnKind{Table: timerTable, Ix: 0, Kind: value.I64},
		change.SetColumnKind{Table: timerTable, Ix: 1, Kind: value.I64},
		change.Set{Table: ballTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(2), Value: value.FromInt64(value.I64, 3)},
			{Row: register.Index(0), Col: register.Index(3), Value: value.FromInt64(value.I64, 4)},
		}},
		change.Set{Table: gravTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 9)},
		}},
		change.Set{Table: timerTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 16)},
		}},
	}})
	require.NoError(t, err)
}

func ballisticBlock() *block.Block {
	ticksReg := register.New(timerTable, register.Index(0), register.Index(1))
	plan := []block.Transformation{
		block.Whenever{Table: timerTable, Row: register.Index(0), Col: register.Index(1), Registers: []register.Register{ticksReg}},
		block.Function{
			NameHash: register.HashString56("math/add"),
			Args: []block.Arg{
				{Table: ballTable, Row: register.Index(0), Col: register.Index(0)},
				{Table: ballTable, Row: register.Index(0), Col: register.Index(2)},
			},
			Out: block.Out{Table: ballTable, Row: register.Index(0), Col: register.Index(0)},
		},
		block.Function{
			NameHash: register.HashString56("math/add"),
			Args: []block.Arg{
				{Table: ballTable, Row: register.Index(0), Col: register.Index(1)},
				{Table: ballTable, Row: register.Index(0), Col: register.Index(3)},
			},
			Out: block.Out{Table: ballTable, Row: register.Index(0), Col: register.Index(1)},
		},
		block.Function{
			NameHash: register.HashString56("math/add"),
			Args: []block.Arg{
				{Table: ballTable, Row: register.Index(0), Col: register.Index(3)},
				{Table: gravTable, Row: register.Index(0), Col: register.Index(0)},
			},
			Out: block.Out{Table: ballTable, Row: register.Index(0), Col: register.Index(3)},
		},
	}
	return block.New(plan, nil)
}

func TestBallisticUpdateLoopReachesExpectedStateAtQuiescence(t *testing.T) {
	c := New(DefaultConfig(), nil)
	seedBallisticTables(t, c)
	require.NoError(t, c.RegisterBlock(ballisticBlock()))

	err := c.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: timerTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(1), Value: value.FromInt64(value.I64, 1)},
		}},
	}})
	require.NoError(t, err)

	ball, ok := c.Get(ballTable)
	require.True(t, ok)
	resolve := c.global

	x, _, _ := ball.Get(register.Index(0), register.Index(0), resolve)
	y, _, _ := ball.Get(register.Index(0), register.Index(1), resolve)
	vx, _, _ := ball.Get(register.Index(0), register.Index(2), resolve)
	vy, _, _ := ball.Get(register.Index(0), register.Index(3), resolve)
	require.Equal(t, int64(3), x.Int64())
	require.Equal(t, int64(4), y.Int64())
	require.Equal(t, int64(3), vx.Int64())
	require.Equal(t, int64(13), vy.Int64())
}

func TestRunNetworkIdempotentAtQuiescence(t *testing.T) {
	c := New(DefaultConfig(), nil)
	seedBallisticTables(t, c)
	require.NoError(t, c.RegisterBlock(ballisticBlock()))
	require.NoError(t, c.runNetwork(nil), "no dirtied registers, no new transaction: zero executions")
}

const (
	triggerTable = 30
	midTable     = 31
	finalTable   = 32
)

// doublerBlock reads srcTable's single cell and writes its double into
// dstTable, gated on a Whenever over a register on watchTable — used to
// chain two blocks purely through a direct Function write with no
// local table and no Set-queued change in between.
func doublerBlock(watchTable, srcTable, dstTable uint64) *block.Block {
	watched := register.New(watchTable, register.Index(0), register.Index(0))
	plan := []block.Transformation{
		block.Whenever{Table: watchTable, Row: register.Index(0), Col: register.Index(0), Registers: []register.Register{watched}},
		block.Function{
			NameHash: register.HashString56("math/add"),
			Args: []block.Arg{
				{Table: srcTable, Row: register.Index(0), Col: register.Index(0)},
				{Table: srcTable, Row: register.Index(0), Col: register.Index(0)},
			},
			Out: block.Out{Table: dstTable, Row: register.Index(0), Col: register.Index(0)},
		},
	}
	return block.New(plan, nil)
}

// TestCrossBlockPropagationThroughDirectColumnWrite verifies that a
// Function's direct write to a global table's column (no Set change
// queued) still wakes a second, independently registered block whose
// Whenever watches that exact cell — the write has to surface through
// runNetwork's harvested dirtied set, not just through PendingChanges.
func TestCrossBlockPropagationThroughDirectColumnWrite(t *testing.T) {
	c := New(DefaultConfig(), nil)
	require.NoError(t, c.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.NewTable{Table: triggerTable, Rows: 1, Cols: 1},
		change.NewTable{Table: midTable, Rows: 1, Cols: 1},
		change.NewTable{Table: finalTable, Rows: 1, Cols: 1},
		change.SetColumnKind{Table: triggerTable, Ix: 0, Kind: value.I64},
		change.SetColumnKind{Table: midTable, Ix: 0, Kind: value.I64},
		change.SetColumnKind{Table: finalTable, Ix: 0, Kind: value.I64},
	}}))

	require.NoError(t, c.RegisterBlock(doublerBlock(triggerTable, triggerTable, midTable)))
	require.NoError(t, c.RegisterBlock(doublerBlock(midTable, midTable, finalTable)))

	require.NoError(t, c.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: triggerTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 5)},
		}},
	}}))

	mid, ok := c.Get(midTable)
	require.True(t, ok)
	final, ok := c.Get(finalTable)
	require.True(t, ok)
	resolve := c.global

	m, _, _ := mid.Get(register.Index(0), register.Index(0), resolve)
	f, _, _ := final.Get(register.Index(0), register.Index(0), resolve)
	require.Equal(t, int64(10), m.Int64(), "first block writes directly to the global mid table")
	require.Equal(t, int64(20), f.Int64(), "second block must wake off the first block's direct write, not a queued Set")
}

func TestStepBackAfterBallisticTickRestoresPriorState(t *testing.T) {
	c := New(DefaultConfig(), nil)
	seedBallisticTables(t, c)
	require.NoError(t, c.RegisterBlock(ballisticBlock()))
	require.NoError(t, c.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: timerTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(1), Value: value.FromInt64(value.I64, 1)},
		}},
	}}))

	require.NoError(t, c.StepBack(2), "undo both the tick-set transaction and the block's follow-up writes")

	ball, _ := c.Get(ballTable)
	timer, _ := c.Get(timerTable)
	resolve := c.global
	y, _, _ := ball.Get(register.Index(0), register.Index(1), resolve)
	ticks, _, _ := timer.Get(register.Index(0), register.Index(1), resolve)
	require.Equal(t, int64(4), y.Int64())
	require.Equal(t, int64(0), ticks.Int64())
}
