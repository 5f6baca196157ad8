package block

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/operator"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// buildIterator resolves (table, row, col) into an operator.Iterator:
// one operator.Column per resolved table column, each carrying the
// same resolved row list (§4.6 "resolve every argument's (table, row,
// col) into a ValueIterator ... applying row/col selectors").
func buildIterator(t *mtable.Table, row, col register.Selector, resolve mtable.Resolver) (*operator.Iterator, error) {
	rows, err := t.ResolveRows(row, resolve)
	if err != nil {
		return nil, err
	}
	cols, err := t.ResolveCols(col, resolve)
	if err != nil {
		return nil, err
	}
	handles := make([]value.Column, len(cols))
	rowSets := make([][]int, len(cols))
	for i, c := range cols {
		handles[i] = t.Column(c)
		rowSets[i] = rows
	}
	return operator.NewIterator(t.ID, handles, rowSets, t.Dynamic()), nil
}

func (b *Block) lookupTable(id uint64, global GlobalLookup) (*mtable.Table, error) {
	if lt, ok := b.local(id); ok {
		return lt, nil
	}
	if gt, ok := global(id); ok {
		return gt, nil
	}
	return nil, mecherr.Missing(id)
}

// Solve runs the block's plan once (§4.6): evaluates each Whenever
// gate, dispatches each Function, materializes each Select, and writes
// each Constant/TableReference. Every write goes straight into the
// local or global table it names through the table's shared column
// handles; Solve queues no Changes, and the runtime picks up direct
// writes to global tables from their changed bits. A plan that runs to
// the end consumes the block's ready bits.
func (b *Block) Solve(global GlobalLookup) {
	resolve := b.Resolver(global)

	for _, t := range b.Plan {
		switch tr := t.(type) {
		case Whenever:
			fired, err := b.whenFired(tr, global, resolve)
			if err != nil {
				b.AddError(toMechError(err))
				return
			}
			if !fired {
				b.State = Done
				return
			}
			for _, r := range tr.Registers {
				b.ready[regKey(r)] = false
			}

		case Constant:
			if err := b.writeScalar(tr.Table, tr.Value, global, resolve); err != nil {
				b.AddError(toMechError(err))
				return
			}

		case TableReference:
			if err := b.writeScalar(tr.Table, value.FromTableRef(tr.Reference), global, resolve); err != nil {
				b.AddError(toMechError(err))
				return
			}

		case Function:
			if err := b.runFunction(tr, global, resolve); err != nil {
				b.AddError(toMechError(err))
				return
			}

		case Select:
			if err := b.runSelect(tr, global, resolve); err != nil {
				b.AddError(toMechError(err))
				return
			}
		}
	}
	for _, r := range b.Input {
		b.ready[regKey(r)] = false
	}
	b.State = Done
}

func toMechError(err error) *mecherr.MechError {
	if me, ok := err.(*mecherr.MechError); ok {
		return me
	}
	return mecherr.Generic(err.Error())
}

func (b *Block) whenFired(w Whenever, global GlobalLookup, resolve mtable.Resolver) (bool, error) {
	for _, r := range w.Registers {
		t, err := b.lookupTable(r.TableID, global)
		if err != nil {
			return false, err
		}
		rows, err := t.ResolveRows(r.Row, resolve)
		if err != nil {
			return false, err
		}
		cols, err := t.ResolveCols(r.Col, resolve)
		if err != nil {
			return false, err
		}
		for _, c := range cols {
			col := t.Column(c)
			for _, row := range rows {
				if col.Changed(row) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (b *Block) writeScalar(tableID uint64, v value.Value, global GlobalLookup, resolve mtable.Resolver) error {
	if lt, ok := b.local(tableID); ok {
		return lt.Set(register.Index(0), register.Index(0), v, resolve)
	}
	if gt, ok := global(tableID); ok {
		return gt.Set(register.Index(0), register.Index(0), v, resolve)
	}
	return mecherr.Missing(tableID)
}

// stdlib function and argument names, hashed the same way every
// identifier in the runtime is (§6): the operator dispatch table is
// keyed by these hashes, never by the string itself.
var (
	fnStatsSum  = register.HashString56("stats/sum")
	fnRange     = register.HashString56("table/range")
	fnHConcat   = register.HashString56("table/horizontal-concatenate")
	fnVConcat   = register.HashString56("table/vertical-concatenate")
	fnSet       = register.HashString56("table/set")
	fnAnyFn     = register.HashString56("set/any")

	argColumn = register.HashString56("column")
	argRow    = register.HashString56("row")
	argTable  = register.HashString56("table")
	argIndex  = register.HashString56("index")
	argStart  = register.HashString56("start")
	argEnd    = register.HashString56("end")
	argStep   = register.HashString56("step")
)

func findArg(args []Arg, nameHash uint64) (Arg, bool) {
	for _, a := range args {
		if a.NameHash == nameHash {
			return a, true
		}
	}
	return Arg{}, false
}

func (b *Block) runFunction(f Function, global GlobalLookup, resolve mtable.Resolver) error {
	switch f.NameHash {
	case fnStatsSum:
		return b.runStatsSum(f, global, resolve)
	case fnRange:
		return b.runRange(f, global, resolve)
	case fnHConcat:
		return b.runConcat(f, global, resolve, true)
	case fnVConcat:
		return b.runConcat(f, global, resolve, false)
	case fnSet:
		return b.runTableSet(f, global, resolve)
	case fnAnyFn:
		return b.runAny(f, global, resolve)
	}

	if len(f.Args) > 2 {
		return mecherr.TooManyInputArguments(len(f.Args), 2)
	}
	iters := make([]*operator.Iterator, len(f.Args))
	for i, a := range f.Args {
		t, err := b.lookupTable(a.Table, global)
		if err != nil {
			return err
		}
		it, err := buildIterator(t, a.Row, a.Col, resolve)
		if err != nil {
			return err
		}
		iters[i] = it
	}
	out, err := b.lookupTable(f.Out.Table, global)
	if err != nil {
		return err
	}
	outIter, err := buildIterator(out, f.Out.Row, f.Out.Col, resolve)
	if err != nil {
		return err
	}
	switch len(iters) {
	case 1:
		return operator.Unary(iters[0], outIter, unaryFor(f.NameHash))
	case 2:
		return operator.Dispatch(f.NameHash, iters[0], iters[1], outIter)
	default:
		return mecherr.MissingFunction(f.NameHash)
	}
}

// argIterator resolves one named Function argument into an Iterator.
func (b *Block) argIterator(f Function, nameHash uint64, global GlobalLookup, resolve mtable.Resolver) (*operator.Iterator, bool, error) {
	a, ok := findArg(f.Args, nameHash)
	if !ok {
		return nil, false, nil
	}
	t, err := b.lookupTable(a.Table, global)
	if err != nil {
		return nil, false, err
	}
	it, err := buildIterator(t, a.Row, a.Col, resolve)
	if err != nil {
		return nil, false, err
	}
	return it, true, nil
}

func (b *Block) writeOut1x1(f Function, v value.Value, global GlobalLookup, resolve mtable.Resolver) error {
	out, err := b.lookupTable(f.Out.Table, global)
	if err != nil {
		return err
	}
	out.Resize(1, 1)
	return out.Set(register.Index(0), register.Index(0), v, resolve)
}

// runStatsSum implements stats/sum(column:|row:|table:); column mode is
// optionally gated by an "index" boolean column (§4.7, original_source's
// stats.rs gate argument), and the row and table modes ignore the gate.
func (b *Block) runStatsSum(f Function, global GlobalLookup, resolve mtable.Resolver) error {
	gate, _, err := b.argIterator(f, argIndex, global, resolve)
	if err != nil {
		return err
	}
	if colIt, ok, err := b.argIterator(f, argColumn, global, resolve); err != nil {
		return err
	} else if ok {
		sum, err := operator.SumColumn(colIt, gate)
		if err != nil {
			return err
		}
		return b.writeOut1x1(f, sum, global, resolve)
	}
	if rowIt, ok, err := b.argIterator(f, argRow, global, resolve); err != nil {
		return err
	} else if ok {
		out, err := b.lookupTable(f.Out.Table, global)
		if err != nil {
			return err
		}
		rows := rowIt.Shape().Rows
		out.Resize(rows, 1)
		outIter, err := buildIterator(out, register.All(), register.All(), resolve)
		if err != nil {
			return err
		}
		return operator.SumRow(rowIt, rows, outIter)
	}
	if tblIt, ok, err := b.argIterator(f, argTable, global, resolve); err != nil {
		return err
	} else if ok {
		sum, err := operator.SumTable(tblIt)
		if err != nil {
			return err
		}
		return b.writeOut1x1(f, sum, global, resolve)
	}
	return mecherr.UnknownFunctionArgument(f.NameHash)
}

// runRange implements table/range(start, end[, step]) (§4.7).
func (b *Block) runRange(f Function, global GlobalLookup, resolve mtable.Resolver) error {
	startArg, ok := findArg(f.Args, argStart)
	if !ok {
		return mecherr.UnknownFunctionArgument(argStart)
	}
	endArg, ok := findArg(f.Args, argEnd)
	if !ok {
		return mecherr.UnknownFunctionArgument(argEnd)
	}
	startT, err := b.lookupTable(startArg.Table, global)
	if err != nil {
		return err
	}
	endT, err := b.lookupTable(endArg.Table, global)
	if err != nil {
		return err
	}
	startV, _, err := startT.Get(startArg.Row, startArg.Col, resolve)
	if err != nil {
		return err
	}
	endV, _, err := endT.Get(endArg.Row, endArg.Col, resolve)
	if err != nil {
		return err
	}
	step := int64(1)
	if stepArg, ok := findArg(f.Args, argStep); ok {
		stepT, err := b.lookupTable(stepArg.Table, global)
		if err != nil {
			return err
		}
		stepV, _, err := stepT.Get(stepArg.Row, stepArg.Col, resolve)
		if err != nil {
			return err
		}
		step = stepV.Int64()
	}
	kind := startV.Kind
	if !kind.IsNumeric() {
		kind = value.U64
	}
	col, err := operator.Range(startV.Int64(), endV.Int64(), step, kind)
	if err != nil {
		return err
	}
	out, err := b.lookupTable(f.Out.Table, global)
	if err != nil {
		return err
	}
	out.Resize(col.Len(), 1)
	out.SetColumnKind(0, kind)
	for i := 0; i < col.Len(); i++ {
		v, _ := col.Get(i)
		if err := out.Set(register.Index(uint64(i)), register.Index(0), v, resolve); err != nil {
			return err
		}
	}
	return nil
}

// runConcat implements table/horizontal-concatenate and
// table/vertical-concatenate: every argument (regardless of name) is
// one operand table, in argument order (§4.7).
func (b *Block) runConcat(f Function, global GlobalLookup, resolve mtable.Resolver, horizontal bool) error {
	if len(f.Args) == 0 {
		return mecherr.Generic("concatenate requires at least one table")
	}
	tables := make([]*mtable.Table, len(f.Args))
	for i, a := range f.Args {
		t, err := b.lookupTable(a.Table, global)
		if err != nil {
			return err
		}
		tables[i] = t
	}
	out, err := b.lookupTable(f.Out.Table, global)
	if err != nil {
		return err
	}
	if horizontal {
		return operator.HConcat(tables, out, resolve)
	}
	return operator.VConcat(tables, out, resolve)
}

// runTableSet implements table/set(src) -> dst (§4.7); the richer
// Select-driven path in runSelect handles the common narrowing case,
// this handles it invoked directly as a Function. When dst's row (or
// column) selector is Table(_) and src's is All, src is resolved
// through dst's selector so the two line up position by position.
func (b *Block) runTableSet(f Function, global GlobalLookup, resolve mtable.Resolver) error {
	srcArg, ok := findArg(f.Args, argTable)
	if !ok && len(f.Args) > 0 {
		srcArg = f.Args[0]
		ok = true
	}
	if !ok {
		return mecherr.Generic("table/set requires a source argument")
	}
	srcT, err := b.lookupTable(srcArg.Table, global)
	if err != nil {
		return err
	}
	srcRow, srcCol := srcArg.Row, srcArg.Col
	if f.Out.Row.IsTable() && srcRow.IsAll() {
		srcRow = f.Out.Row
	}
	if f.Out.Col.IsTable() && srcCol.IsAll() {
		srcCol = f.Out.Col
	}
	srcIter, err := buildIterator(srcT, srcRow, srcCol, resolve)
	if err != nil {
		return err
	}
	out, err := b.lookupTable(f.Out.Table, global)
	if err != nil {
		return err
	}
	outIter, err := buildIterator(out, f.Out.Row, f.Out.Col, resolve)
	if err != nil {
		return err
	}
	return operator.SetInto(srcIter, outIter)
}

// runAny implements set/any(col:|row:|table:) as a boolean reduction
// over whichever axis argument is present (§4.7).
func (b *Block) runAny(f Function, global GlobalLookup, resolve mtable.Resolver) error {
	var it *operator.Iterator
	var err error
	for _, name := range []uint64{argColumn, argRow, argTable} {
		it, _, err = b.argIterator(f, name, global, resolve)
		if err != nil {
			return err
		}
		if it != nil {
			break
		}
	}
	if it == nil && len(f.Args) > 0 {
		t, terr := b.lookupTable(f.Args[0].Table, global)
		if terr != nil {
			return terr
		}
		it, err = buildIterator(t, f.Args[0].Row, f.Args[0].Col, resolve)
		if err != nil {
			return err
		}
	}
	if it == nil {
		return mecherr.Generic("set/any requires an argument")
	}
	result, err := operator.AnySelection(it)
	if err != nil {
		return err
	}
	return b.writeOut1x1(f, value.FromBool(result), global, resolve)
}

var unaryDispatch = map[uint64]operator.UnaryScalarFn{
	register.HashString56("math/negate"): func(a value.Value) (value.Value, error) { return value.Neg(a) },
	register.HashString56("logic/not"):   func(a value.Value) (value.Value, error) { return value.Not(a) },
}

func unaryFor(nameHash uint64) operator.UnaryScalarFn {
	if fn, ok := unaryDispatch[nameHash]; ok {
		return fn
	}
	return func(a value.Value) (value.Value, error) { return value.EmptyValue, mecherr.MissingFunction(nameHash) }
}

// runSelect materializes (Table, Row, Col) into Out, resizing it to the
// observed shape (§4.6). Indices only replace the column selector: the
// last Index or Alias entry wins, other entries are ignored, and Row is
// used as given.
func (b *Block) runSelect(s Select, global GlobalLookup, resolve mtable.Resolver) error {
	t, err := b.lookupTable(s.Table, global)
	if err != nil {
		return err
	}
	row, col := s.Row, s.Col
	for _, ix := range s.Indices {
		if ix.IsIndex() || ix.IsAlias() {
			col = ix
		}
	}
	src, err := buildIterator(t, row, col, resolve)
	if err != nil {
		return err
	}
	out, err := b.lookupTable(s.Out.Table, global)
	if err != nil {
		return err
	}
	shape := src.Shape()
	rows, cols := shape.Rows, shape.Cols
	if shape.IsScalar() {
		rows, cols = 1, 1
	} else if shape.Kind == operator.ShapeColumn {
		rows, cols = shape.Rows, 1
	}
	out.Resize(rows, cols)
	outIter, err := buildIterator(out, register.All(), register.All(), resolve)
	if err != nil {
		return err
	}
	return operator.SetInto(src, outIter)
}
