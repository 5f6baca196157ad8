// Package mechdb implements the Database: the global table registry,
// transaction application, and the transaction log that backs
// step/step_back rewind (§4.4).
package mechdb

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// logEntry pairs an applied transaction with the inverse that undoes
// its data-tier writes: one Set per cell the transaction changed,
// carrying that cell's prior value. Shape and metadata changes are not
// inverted; rewind only restores cell data. The inverse is applied
// through Column.Set, so a restored cell gets its changed bit set like
// any other write; rewind does not clear changed flags.
type logEntry struct {
	forward change.Transaction
	inverse change.Transaction
}

// Database holds the global table registry, the shared value Store,
// and the transaction log. It exposes read-only table access to
// blocks during solve and returns the set of concretely dirtied
// registers from each applied transaction, letting the runtime decide
// which blocks to wake without the Database needing to know about
// blocks at all.
type Database struct {
	mu     sync.RWMutex
	tables map[uint64]*mtable.Table
	store  *value.Store
	log    []logEntry
	redo   []logEntry
	logger *zap.Logger
}

func New(storeCapacity int, logger *zap.Logger) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Database{
		tables: make(map[uint64]*mtable.Table),
		store:  value.NewStore(storeCapacity),
		logger: logger,
	}
}

func (d *Database) Store() *value.Store { return d.store }

// Table returns read-only access to a table by id.
func (d *Database) Table(id uint64) (*mtable.Table, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[id]
	return t, ok
}

// Resolver adapts the Database's table registry to mtable.Resolver,
// for resolving register.Table(id) selectors.
func (d *Database) Resolver() mtable.Resolver {
	return func(id uint64) (*mtable.Table, bool) {
		return d.Table(id)
	}
}

// ProcessTransaction applies txn atomically with respect to block
// scheduling (§4.3): shape changes, then metadata, then data. It
// returns the concrete registers that were actually dirtied by a data
// write (only cells whose value differed, per the Column.Set
// contract), in application order, and appends the transaction (and
// its generated inverse) to the rewind log.
func (d *Database) ProcessTransaction(txn change.Transaction) ([]register.Register, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var inverseWrites []change.Change
	var dirtied []register.Register

	for _, c := range txn.Ordered() {
		switch ch := c.(type) {
		case change.NewTable:
			d.tables[ch.Table] = mtable.New(ch.Table, ch.Rows, ch.Cols)
			d.logger.Debug("new table", zap.Uint64("table", ch.Table), zap.Int("rows", ch.Rows), zap.Int("cols", ch.Cols))

		case change.Resize:
			t, ok := d.tables[ch.Table]
			if !ok {
				return nil, mecherr.Missing(ch.Table)
			}
			t.Resize(ch.Rows, ch.Cols)

		case change.SetColumnAlias:
			t, ok := d.tables[ch.Table]
			if !ok {
				return nil, mecherr.Missing(ch.Table)
			}
			if err := t.SetColumnAlias(ch.Ix, ch.Alias, ch.Name); err != nil {
				return nil, err
			}

		case change.SetColumnKind:
			t, ok := d.tables[ch.Table]
			if !ok {
				return nil, mecherr.Missing(ch.Table)
			}
			if err := t.SetColumnKind(ch.Ix, ch.Kind); err != nil {
				return nil, err
			}

		case change.Set:
			t, ok := d.tables[ch.Table]
			if !ok {
				return nil, mecherr.Missing(ch.Table)
			}
			undo, dirty, err := d.applySet(t, ch)
			if err != nil {
				return nil, err
			}
			inverseWrites = append(inverseWrites, undo...)
			dirtied = append(dirtied, dirty...)

		case change.SetTable:
			t, ok := d.tables[ch.Table]
			if !ok {
				return nil, mecherr.Missing(ch.Table)
			}
			undo, dirty := d.applySetTable(t, ch)
			inverseWrites = append(inverseWrites, undo...)
			dirtied = append(dirtied, dirty...)
		}
	}

	d.log = append(d.log, logEntry{
		forward: txn,
		inverse: change.Transaction{Changes: reverseChanges(inverseWrites)},
	})
	d.redo = nil // a fresh forward transaction invalidates any redo history
	d.logger.Debug("transaction applied", zap.Int("dirtied", len(dirtied)))
	return dirtied, nil
}

// applySet performs a Set change's writes cell by cell so that only
// actually-differing cells are recorded as dirtied and invertible,
// mirroring Table.Set's own "write only if different" contract at the
// per-write granularity the Database needs for the undo log.
func (d *Database) applySet(t *mtable.Table, ch change.Set) (undo []change.Change, dirtied []register.Register, err error) {
	resolve := d.Resolver()
	for _, w := range ch.Writes {
		rows, rerr := resolveRowsExported(t, w.Row, resolve)
		if rerr != nil {
			return nil, nil, rerr
		}
		cols, cerr := resolveColsExported(t, w.Col, resolve)
		if cerr != nil {
			return nil, nil, cerr
		}
		for _, c := range cols {
			for _, r := range rows {
				old, _, _ := t.Get(register.Index(uint64(r)), register.Index(uint64(c)), resolve)
				changedHere := t.Column(c).Set(r, w.Value)
				if changedHere {
					dirtied = append(dirtied, register.New(t.ID, register.Index(uint64(r)), register.Index(uint64(c))))
					undo = append(undo, change.Set{Table: t.ID, Writes: []change.Write{{
						Row: register.Index(uint64(r)), Col: register.Index(uint64(c)), Value: old,
					}}})
				}
			}
		}
	}
	return undo, dirtied, nil
}

func (d *Database) applySetTable(t *mtable.Table, ch change.SetTable) (undo []change.Change, dirtied []register.Register) {
	for c := range ch.Data {
		if c >= t.Cols() {
			break
		}
		old := t.Column(c)
		oldValues := make([]value.Value, old.Len())
		for r := 0; r < old.Len(); r++ {
			oldValues[r], _ = old.Get(r)
		}
		for r := 0; r < ch.Data[c].Len() && r < t.Column(c).Len(); r++ {
			v, _ := ch.Data[c].Get(r)
			if t.Column(c).Set(r, v) {
				dirtied = append(dirtied, register.New(t.ID, register.Index(uint64(r)), register.Index(uint64(c))))
			}
		}
		undo = append(undo, change.Set{Table: t.ID, Writes: writesFromColumn(c, oldValues)})
	}
	return undo, dirtied
}

func writesFromColumn(col int, values []value.Value) []change.Write {
	out := make([]change.Write, len(values))
	for r, v := range values {
		out[r] = change.Write{Row: register.Index(uint64(r)), Col: register.Index(uint64(col)), Value: v}
	}
	return out
}

func reverseChanges(cs []change.Change) []change.Change {
	out := make([]change.Change, len(cs))
	for i, c := range cs {
		out[len(cs)-1-i] = c
	}
	return out
}

// resolveRowsExported/resolveColsExported re-expose mtable's selector
// resolution for the Database's per-write undo bookkeeping, which
// needs each concrete (row, col) pair rather than Table.Set's
// already-collapsed writer.
func resolveRowsExported(t *mtable.Table, sel register.Selector, resolve mtable.Resolver) ([]int, error) {
	return t.ResolveRows(sel, resolve)
}

func resolveColsExported(t *mtable.Table, sel register.Selector, resolve mtable.Resolver) ([]int, error) {
	return t.ResolveCols(sel, resolve)
}

// StepBack rewinds the last n applied transactions, restoring prior
// cell data and moving them onto the redo stack so a later Step can
// replay them forward again.
func (d *Database) StepBack(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < n; i++ {
		if len(d.log) == 0 {
			return mecherr.Generic("nothing left to rewind")
		}
		entry := d.log[len(d.log)-1]
		d.log = d.log[:len(d.log)-1]
		if err := d.applyInverseLocked(entry.inverse); err != nil {
			return err
		}
		d.redo = append(d.redo, entry)
	}
	return nil
}

// Step replays n previously rewound transactions forward.
func (d *Database) Step(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < n; i++ {
		if len(d.redo) == 0 {
			return mecherr.Generic("nothing left to replay")
		}
		entry := d.redo[len(d.redo)-1]
		d.redo = d.redo[:len(d.redo)-1]
		if err := d.applyInverseLocked(entry.forward); err != nil {
			return err
		}
		d.log = append(d.log, entry)
	}
	return nil
}

// applyInverseLocked applies a (forward or inverse) transaction's data
// writes (Set and SetTable) directly, without touching the log — the
// caller manages log bookkeeping. Shape and metadata changes are
// skipped.
func (d *Database) applyInverseLocked(txn change.Transaction) error {
	resolve := d.Resolver()
	for _, c := range txn.Ordered() {
		if st, ok := c.(change.SetTable); ok {
			t, ok := d.tables[st.Table]
			if !ok {
				return mecherr.Missing(st.Table)
			}
			d.applySetTable(t, st)
			continue
		}
		set, ok := c.(change.Set)
		if !ok {
			continue
		}
		t, ok := d.tables[set.Table]
		if !ok {
			return mecherr.Missing(set.Table)
		}
		for _, w := range set.Writes {
			rows, err := t.ResolveRows(w.Row, resolve)
			if err != nil {
				return err
			}
			cols, err := t.ResolveCols(w.Col, resolve)
			if err != nil {
				return err
			}
			for _, col := range cols {
				for _, row := range rows {
					t.Column(col).Set(row, w.Value)
				}
			}
		}
	}
	return nil
}
