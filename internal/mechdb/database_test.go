package mechdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

func newTableTxn(id uint64, rows, cols int) change.Transaction {
	return change.Transaction{Changes: []change.Change{
		change.NewTable{Table: id, Rows: rows, Cols: cols},
		change.SetColumnKind{Table: id, Ix: 0, Kind: value.I64},
	}}
}

func TestProcessTransactionAppliesShapeBeforeData(t *testing.T) {
	db := New(64, nil)
	txn := change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 5)},
		}},
		change.NewTable{Table: 1, Rows: 1, Cols: 1},
		change.SetColumnKind{Table: 1, Ix: 0, Kind: value.I64},
	}}
	_, err := db.ProcessTransaction(txn)
	require.NoError(t, err)

	tbl, ok := db.Table(1)
	require.True(t, ok)
	v, _, err := tbl.Get(register.Index(0), register.Index(0), db.Resolver())
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int64())
}

func TestProcessTransactionReportsOnlyActuallyDirtiedRegisters(t *testing.T) {
	db := New(64, nil)
	_, err := db.ProcessTransaction(newTableTxn(1, 1, 1))
	require.NoError(t, err)

	dirtied, err := db.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 0)},
		}},
	}})
	require.NoError(t, err)
	require.Empty(t, dirtied, "writing the existing zero value should not dirty anything")

	dirtied, err = db.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 9)},
		}},
	}})
	require.NoError(t, err)
	require.Len(t, dirtied, 1)
	require.Equal(t, uint64(1), dirtied[0].TableID)
}

func TestStepBackRestoresPriorDataAndStepReplaysForward(t *testing.T) {
	db := New(64, nil)
	_, err := db.ProcessTransaction(newTableTxn(1, 1, 1))
	require.NoError(t, err)

	_, err = db.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 42)},
		}},
	}})
	require.NoError(t, err)

	tbl, _ := db.Table(1)
	v, _, err := tbl.Get(register.Index(0), register.Index(0), db.Resolver())
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int64())

	require.NoError(t, db.StepBack(1))
	v, _, err = tbl.Get(register.Index(0), register.Index(0), db.Resolver())
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int64())

	require.NoError(t, db.Step(1))
	v, _, err = tbl.Get(register.Index(0), register.Index(0), db.Resolver())
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int64())
}

func TestStepBackErrorsWhenLogExhausted(t *testing.T) {
	db := New(64, nil)
	require.Error(t, db.StepBack(1))
}

func TestForwardTransactionAfterRewindClearsRedo(t *testing.T) {
	db := New(64, nil)
	_, err := db.ProcessTransaction(newTableTxn(1, 1, 1))
	require.NoError(t, err)
	_, err = db.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 1)},
		}},
	}})
	require.NoError(t, err)
	require.NoError(t, db.StepBack(1))

	_, err = db.ProcessTransaction(change.Transaction{Changes: []change.Change{
		change.Set{Table: 1, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(0), Value: value.FromInt64(value.I64, 2)},
		}},
	}})
	require.NoError(t, err)
	require.Error(t, db.Step(1), "redo history invalidated by a fresh forward transaction")
}
