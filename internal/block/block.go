package block

import (
	"go.uber.org/zap"

	"github.com/mech-lang/core/internal/change"
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/register"
)

// GlobalLookup resolves a global table by id, the same shape as
// mtable.Resolver but named for clarity at the block/runtime boundary.
type GlobalLookup func(id uint64) (*mtable.Table, bool)

// Block is a declarative, re-executable unit: a bag of local tables, a
// plan of Transformations, and the input/output/ready bookkeeping the
// scheduler consults every round (§4.6).
type Block struct {
	ID uint64

	LocalTables map[uint64]*mtable.Table

	Input              []register.Register
	Output             []register.Register
	OutputDependencies []register.Register
	Plan               []Transformation

	PendingChanges []change.Change
	State          State
	Errors         []*mecherr.MechError

	ready          map[uint64]bool
	outputDepReady map[uint64]bool

	logger *zap.Logger
}

// New builds a Block from an ordered transformation list and computes
// its content-addressed id.
func New(plan []Transformation, logger *zap.Logger) *Block {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Block{
		ID:             ContentHash(plan),
		LocalTables:    make(map[uint64]*mtable.Table),
		Plan:           plan,
		State:          StateNew,
		ready:          make(map[uint64]bool),
		outputDepReady: make(map[uint64]bool),
		logger:         logger,
	}
}

func (b *Block) local(id uint64) (*mtable.Table, bool) {
	t, ok := b.LocalTables[id]
	return t, ok
}

// Resolver looks up a table local to the block first, then falls back
// to global, matching the plan evaluator's lookup order (§4.6 "Select:
// ... by looking up the table locally then globally").
func (b *Block) Resolver(global GlobalLookup) mtable.Resolver {
	return func(id uint64) (*mtable.Table, bool) {
		if t, ok := b.local(id); ok {
			return t, true
		}
		return global(id)
	}
}

func regKey(r register.Register) uint64 { return r.Hash() }

// RegisterTransformations walks the plan and: creates local tables
// directly; queues NewTable/SetColumnAlias/Set for global tables;
// records input registers from Function args and Whenever; records
// output registers from Function outs, Set, and global NewTable;
// populates each local table's alias graph (§4.6).
func (b *Block) RegisterTransformations(global GlobalLookup) error {
	var whenRegs, argRegs []register.Register

	for _, t := range b.Plan {
		switch tr := t.(type) {
		case NewTable:
			if tr.Global {
				b.PendingChanges = append(b.PendingChanges, change.NewTable{Table: tr.Table, Rows: tr.Rows, Cols: tr.Cols})
				b.Output = append(b.Output, register.New(tr.Table, register.All(), register.All()))
			} else {
				b.LocalTables[tr.Table] = mtable.New(tr.Table, tr.Rows, tr.Cols)
			}

		case ColumnAlias:
			if lt, ok := b.local(tr.Table); ok {
				if err := lt.SetColumnAlias(tr.Ix, tr.Alias, ""); err != nil {
					return err
				}
			} else {
				b.PendingChanges = append(b.PendingChanges, change.SetColumnAlias{Table: tr.Table, Ix: tr.Ix, Alias: tr.Alias})
			}

		case Set:
			if _, ok := b.local(tr.Table); !ok {
				b.PendingChanges = append(b.PendingChanges, change.Set{Table: tr.Table})
			}
			b.Output = append(b.Output, register.New(tr.Table, tr.Row, tr.Col))

		case Whenever:
			whenRegs = append(whenRegs, tr.Registers...)

		case Function:
			for _, a := range tr.Args {
				argRegs = append(argRegs, register.New(a.Table, a.Row, a.Col))
			}
			b.Output = append(b.Output, register.New(tr.Out.Table, tr.Out.Row, tr.Out.Col))

		case Select:
			argRegs = append(argRegs, register.New(tr.Table, tr.Row, tr.Col))
			b.Output = append(b.Output, register.New(tr.Out.Table, tr.Out.Row, tr.Out.Col))

		case TableReference:
			b.Output = append(b.Output, register.New(tr.Table, register.All(), register.All()))
		}
	}

	// A block with an explicit Whenever gates readiness on exactly the
	// watched registers; the Function/Select args it reads are resolved
	// at solve time regardless of their own dirty status. A block with
	// no Whenever fires once every register it reads has been dirtied
	// since its last solve.
	if len(whenRegs) > 0 {
		b.Input = whenRegs
	} else {
		b.Input = argRegs
	}
	for _, r := range b.Input {
		b.ready[regKey(r)] = false
	}
	return nil
}

// MarkReady consults dirtied registers against the block's Input and
// OutputDependencies via the register-equivalence rules (§4.5),
// flipping the corresponding ready bits. bimapFor resolves the alias
// bimap of the table a given register belongs to (nil when it has
// none yet).
func (b *Block) MarkReady(dirtied []register.Register, bimapFor func(tableID uint64) *register.AliasBimap) {
	for _, d := range dirtied {
		bm := bimapFor(d.TableID)
		if bm == nil {
			bm = register.NewAliasBimap()
		}
		for _, in := range b.Input {
			if register.Covers(in, d, bm) {
				b.ready[regKey(in)] = true
			}
		}
		for _, dep := range b.OutputDependencies {
			if register.Covers(dep, d, bm) {
				b.outputDepReady[regKey(dep)] = true
			}
		}
	}
}

// IsReady reports whether the block can fire this round (§4.6).
func (b *Block) IsReady() bool {
	if b.State == Error || b.State == Disabled {
		return false
	}
	if len(b.Errors) > 0 {
		return false
	}
	for _, in := range b.Input {
		if !b.ready[regKey(in)] {
			return false
		}
	}
	for _, dep := range b.OutputDependencies {
		if !b.outputDepReady[regKey(dep)] {
			return false
		}
	}
	return true
}

// AddError accumulates a hard error and transitions the block to
// Error, unless err is soft (PendingTable), in which case the block
// parks as Unsatisfied instead and is retried next round without
// accumulating (§4.9, original_source/src/block.rs: a second unrelated
// error does not clear the first).
func (b *Block) AddError(err *mecherr.MechError) {
	if err.IsSoft() {
		b.State = Unsatisfied
		return
	}
	b.Errors = append(b.Errors, err)
	b.State = Error
}

// Disable transitions the block to Disabled; it is skipped by the
// scheduler until re-enabled.
func (b *Block) Disable() { b.State = Disabled }

// Enable transitions a Disabled block back to New so it re-evaluates
// on the next round (§5 "transitioning it back to New re-enables it").
func (b *Block) Enable() {
	if b.State == Disabled {
		b.State = StateNew
	}
}
