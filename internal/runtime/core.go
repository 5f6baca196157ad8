// Package runtime implements the Scheduler: block registration,
// readiness tracking, the fixed-point run_network loop, and the
// Core façade external callers submit transactions through (§4.8, §6).
package runtime

import (
	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/mech-lang/core/internal/block"
	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mechdb"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/register"
)

// Core is the runtime entry point: the database, the registered
// blocks in registration order, and the register -> subscribing-block
// index (pipes_map, §4.8).
type Core struct {
	db     *mechdb.Database
	blocks []*block.Block
	pipes  map[uint64][]int // register hash -> indices into blocks

	cfg    Config
	logger *zap.Logger
}

// New constructs a Core. A nil logger defaults to a no-op logger.
func New(cfg Config, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.apply()
	return &Core{
		db:     mechdb.New(cfg.StoreCapacity, logger),
		pipes:  make(map[uint64][]int),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Core) global(id uint64) (*mtable.Table, bool) { return c.db.Table(id) }

func (c *Core) bimapFor(tableID uint64) *register.AliasBimap {
	if t, ok := c.db.Table(tableID); ok {
		return t.Alias()
	}
	for _, b := range c.blocks {
		if t, ok := b.LocalTables[tableID]; ok {
			return t.Alias()
		}
	}
	return nil
}

// RegisterBlock registers a block's transformations, wires its input
// registers into pipes_map, and — if registration queued any global
// changes (a global NewTable/SetColumnAlias/Set) — applies them
// immediately and runs the network to quiescence so later-registered
// blocks observe a consistent database (§4.6 "Block: registered once;
// persists until explicitly removed").
func (c *Core) RegisterBlock(blk *block.Block) error {
	if err := blk.RegisterTransformations(c.global); err != nil {
		return err
	}
	idx := len(c.blocks)
	c.blocks = append(c.blocks, blk)
	for _, r := range blk.Input {
		key := r.Hash()
		c.pipes[key] = append(c.pipes[key], idx)
	}

	if len(blk.PendingChanges) > 0 {
		txn := change.Transaction{Changes: blk.PendingChanges}
		blk.PendingChanges = nil
		dirtied, err := c.db.ProcessTransaction(txn)
		if err != nil {
			return err
		}
		return c.runNetwork(dirtied)
	}
	return nil
}

// ProcessTransaction applies txn through the Database and runs the
// network to quiescence (§4.8).
func (c *Core) ProcessTransaction(txn change.Transaction) error {
	dirtied, err := c.db.ProcessTransaction(txn)
	if err != nil {
		return err
	}
	return c.runNetwork(dirtied)
}

// Get exposes read-only table access for external callers (§6).
func (c *Core) Get(tableID uint64) (*mtable.Table, bool) {
	return c.db.Table(tableID)
}

// Step/StepBack delegate directly to the Database's rewind log.
// Rewind restores prior cell data without re-waking the network —
// only a fresh external transaction submission wakes blocks (§5
// "External transaction submission is the only cross-cutting wake").
func (c *Core) Step(n int) error     { return c.db.Step(n) }
func (c *Core) StepBack(n int) error { return c.db.StepBack(n) }

// runNetwork is the fixed-point loop (§4.8): mark ready blocks, solve
// each in registration order, collect and apply their queued changes,
// repeat until no block is ready (quiescence) or MAX_ITER is reached.
func (c *Core) runNetwork(dirtied []register.Register) error {
	var lastBlock uint64
	for iter := 0; iter < c.cfg.MaxIter; iter++ {
		ready := roaring.New()
		for i, b := range c.blocks {
			b.MarkReady(dirtied, c.bimapFor)
			if b.IsReady() {
				ready.Add(uint32(i))
			}
		}
		if ready.IsEmpty() {
			return nil
		}

		var follow []change.Change
		var solved []*block.Block
		it := ready.Iterator()
		for it.HasNext() {
			idx := it.Next()
			b := c.blocks[idx]
			lastBlock = b.ID
			b.Solve(c.global)
			if len(b.Errors) > 0 {
				c.logger.Warn("block errored", zap.Uint64("block", b.ID), zap.Int("errors", len(b.Errors)))
				continue
			}
			follow = append(follow, b.PendingChanges...)
			b.PendingChanges = nil
			solved = append(solved, b)
		}

		// Harvest direct-write output registers once every block in this
		// round has solved. Harvesting does not clear changed bits, so a
		// same-round write stays visible to another block's Whenever check.
		var written []register.Register
		for _, b := range solved {
			written = append(written, c.harvestWrites(b)...)
		}

		if len(follow) == 0 {
			if len(written) == 0 {
				return nil
			}
			dirtied = written
			continue
		}
		newDirtied, err := c.db.ProcessTransaction(change.Transaction{Changes: follow})
		if err != nil {
			return err
		}
		dirtied = append(newDirtied, written...)
	}
	return mecherr.Cycle(lastBlock)
}

// harvestWrites surfaces cells a block changed directly through a
// shared Column handle during Solve (a Function/Select out write,
// which never goes through Database.ProcessTransaction, so it never
// appears in a transaction's returned dirtied list) as dirtied
// registers for the next round (§8 "every block with r in inputs(B) is
// woken exactly once"). Only global tables matter here: a block-local
// output table is invisible to every other block, so nothing to wake
// for it. Only blocks that actually solved this round are harvested —
// a changed bit is never cleared here (matching every other path that
// sets one: a database-applied Set's changed bit isn't cleared either),
// so a register only re-enters the dirtied set when the block that
// owns it solves again, not merely because the bit is still set.
func (c *Core) harvestWrites(b *block.Block) []register.Register {
	var out []register.Register
	for _, r := range b.Output {
		t, ok := c.global(r.TableID)
		if !ok {
			continue
		}
		rows, err := t.ResolveRows(r.Row, c.global)
		if err != nil {
			continue
		}
		cols, err := t.ResolveCols(r.Col, c.global)
		if err != nil {
			continue
		}
		for _, col := range cols {
			column := t.Column(col)
			for _, row := range rows {
				if column.Changed(row) {
					out = append(out, register.New(r.TableID, register.Index(uint64(row)), register.Index(uint64(col))))
				}
			}
		}
	}
	return out
}
