// Command mech is a minimal smoke-test entry point: it registers the
// single ballistic update block (three rewrites) from spec.md's S1 scenario,
// submits one tick, and prints the ball table at quiescence. No
// parsing, no REPL, no CLI flags — the front end that produces
// Transformation lists is out of scope (spec §1, §6).
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mech-lang/core/internal/block"
	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/runtime"
	"github.com/mech-lang/core/internal/value"
)

const (
	ballTable  = 1
	gravTable  = 2
	timerTable = 3
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mech:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	cfg, err := runtime.LoadConfig("mech.toml")
	if err != nil {
		return err
	}
	core := runtime.New(cfg, logger)

	if err := seed(core); err != nil {
		return err
	}
	if err := core.RegisterBlock(ballisticBlock()); err != nil {
		return err
	}

	tick := change.Transaction{Changes: []change.Change{
		change.Set{Table: timerTable, Writes: []change.Write{
			{Row: register.Index(0), Col: register.Index(1), Value: value.FromInt64(value.I64, 1)},
		}},
	}}
	if err := core.ProcessTransaction(tick); err != nil {
		return err
	}

	ball, ok := core.Get(ballTable)
	if !ok {
		return fmt.Errorf("#ball table missing at quiescence")
	}
	resolve := core.Get
	x, _, _ := ball.Get(register.Index(0), register.Index(0), resolve)
	y, _, _ := ball.Get(register.Index(0), register.Index(1), resolve)
	vx, _, _ := ball.Get(register.Index(0), register.Index(2), resolve)
	vy, _, _ := ball.Get(register.Index(0), register.Index(3), resolve)
	fmt.Printf("#ball = [%d %d %d %d]\n", x.Int64(), y.Int64(), vx.Int64(), vy.Int64())
	return nil
}

// seed creates #ball, #gravity and #time/timer and writes their
// initial values as one transaction, matching spec.md's S1 setup.
func seed(core *runtime.Core) error {
	txn := change.Transaction{Changes: []change.Change{
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
	}}
	return core.ProcessTransaction(txn)
}

// ballisticBlock fires on #time/timer.ticks and runs the three update
// rewrites from S1: x += vx, y += vy, vy += gravity.
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
