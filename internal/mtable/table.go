// Package mtable implements the 2D column-oriented Table: row/column
// indexing, change-bit bookkeeping, and alias maps (§4.2).
package mtable

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// Resolver looks up another table by id, used to resolve a
// register.Table(id) selector ("use the referenced table's values as
// the selector list").
type Resolver func(id uint64) (*Table, bool)

// Table is identified by a 64-bit id, Local to a block or Global in
// the database (the id space itself carries no tag; callers track
// which scope a Table belongs to).
type Table struct {
	ID      uint64
	Name    string
	rows    int
	cols    int
	columns []value.Column
	alias   *register.AliasBimap
	names   map[uint64]string // alias hash -> display name, rendering aid only
	dynamic bool
}

// New allocates a Table with `cols` Empty-kind columns of length rows.
func New(id uint64, rows, cols int) *Table {
	columns := make([]value.Column, cols)
	for i := range columns {
		columns[i] = value.NewColumn(value.Empty, rows)
	}
	return &Table{
		ID:      id,
		rows:    rows,
		cols:    cols,
		columns: columns,
		alias:   register.NewAliasBimap(),
		names:   make(map[uint64]string),
	}
}

func (t *Table) Rows() int { return t.rows }
func (t *Table) Cols() int { return t.cols }

func (t *Table) SetDynamic(d bool) { t.dynamic = d }
func (t *Table) Dynamic() bool     { return t.dynamic }

func (t *Table) Alias() *register.AliasBimap { return t.alias }

// SetColumnAlias binds alias to column ix, updating the bimap.
// displayName is stored purely for debug rendering and is never
// consulted for identity (§6: "the wordlist ... is a rendering aid
// only and not on any wire").
func (t *Table) SetColumnAlias(ix int, alias uint64, displayName string) error {
	if ix < 0 || ix >= t.cols {
		return mecherr.LinearOutOfBounds(ix, t.cols)
	}
	t.alias.Bind(ix, alias)
	if displayName != "" {
		t.names[alias] = displayName
	}
	return nil
}

func (t *Table) ColumnKind(ix int) value.Kind {
	return t.columns[ix].Kind()
}

// SetColumnKind rewrites column ix's declared Kind, re-zeroing its
// contents.
func (t *Table) SetColumnKind(ix int, k value.Kind) error {
	if ix < 0 || ix >= t.cols {
		return mecherr.LinearOutOfBounds(ix, t.cols)
	}
	t.columns[ix].SetKind(k)
	return nil
}

// Column returns the Column handle at index ix so operators can share
// its backing buffer (§4.1).
func (t *Table) Column(ix int) value.Column {
	return t.columns[ix]
}

// Resize changes the table's shape, preserving existing column kinds
// and extending with Empty (§4.2). Writes past the current shape on a
// dynamic table should call this before writing (§4.2 "Dynamic
// tables").
func (t *Table) Resize(rows, cols int) {
	if cols > t.cols {
		grown := make([]value.Column, cols)
		copy(grown, t.columns)
		for i := t.cols; i < cols; i++ {
			grown[i] = value.NewColumn(value.Empty, t.rows)
		}
		t.columns = grown
	} else if cols < t.cols {
		t.columns = t.columns[:cols]
	}
	t.cols = cols

	if rows != t.rows {
		for i := range t.columns {
			t.columns[i].Resize(rows)
		}
		t.rows = rows
	}
}

func (t *Table) ResolveRows(sel register.Selector, resolve Resolver) ([]int, error) {
	switch {
	case sel.IsAll():
		out := make([]int, t.rows)
		for i := range out {
			out[i] = i
		}
		return out, nil
	case sel.IsIndex():
		k := int(sel.Value())
		if k < 0 || k >= t.rows {
			return nil, mecherr.LinearOutOfBounds(k, t.rows)
		}
		return []int{k}, nil
	case sel.IsTable():
		ref, ok := resolve(sel.Value())
		if !ok {
			return nil, mecherr.Missing(sel.Value())
		}
		out := make([]int, 0, ref.rows*ref.cols)
		for c := 0; c < ref.cols; c++ {
			for r := 0; r < ref.rows; r++ {
				v, _ := ref.columns[c].Get(r)
				out = append(out, int(v.Uint64()))
			}
		}
		return out, nil
	case sel.IsNone():
		return nil, nil
	default:
		return nil, mecherr.Generic("unhandled row selector")
	}
}

func (t *Table) ResolveCols(sel register.Selector, resolve Resolver) ([]int, error) {
	switch {
	case sel.IsAll():
		out := make([]int, t.cols)
		for i := range out {
			out[i] = i
		}
		return out, nil
	case sel.IsIndex():
		k := int(sel.Value())
		if k < 0 || k >= t.cols {
			return nil, mecherr.LinearOutOfBounds(k, t.cols)
		}
		return []int{k}, nil
	case sel.IsAlias():
		ix, ok := t.alias.IndexOf(sel.Value())
		if !ok {
			return nil, mecherr.Generic("unknown alias")
		}
		return []int{ix}, nil
	case sel.IsTable():
		ref, ok := resolve(sel.Value())
		if !ok {
			return nil, mecherr.Missing(sel.Value())
		}
		out := make([]int, 0, ref.rows*ref.cols)
		for c := 0; c < ref.cols; c++ {
			for r := 0; r < ref.rows; r++ {
				v, _ := ref.columns[c].Get(r)
				ix, ok := t.alias.IndexOf(v.StringHash())
				if !ok {
					return nil, mecherr.Generic("unknown alias")
				}
				out = append(out, ix)
			}
		}
		return out, nil
	case sel.IsNone():
		return nil, nil
	default:
		return nil, mecherr.Generic("unhandled column selector")
	}
}

// Get resolves a single cell. A single-column table treats Index row
// selectors as linear (§4.2); selectors resolving to more than one row
// or column is a caller error — multi-cell materialization goes
// through a ValueIterator (operator package), not Table.Get.
func (t *Table) Get(row, col register.Selector, resolve Resolver) (value.Value, bool, error) {
	rows, err := t.ResolveRows(row, resolve)
	if err != nil {
		return value.EmptyValue, false, err
	}
	cols, err := t.ResolveCols(col, resolve)
	if err != nil {
		return value.EmptyValue, false, err
	}
	if len(rows) != 1 || len(cols) != 1 {
		return value.EmptyValue, false, mecherr.Generic("Get requires a selector resolving to exactly one cell")
	}
	v, changed := t.columns[cols[0]].Get(rows[0])
	return v, changed, nil
}

// GetLinear treats the table as a flat, row-major sequence of
// rows*cols cells: row = k/cols, col = k%cols.
func (t *Table) GetLinear(k int) (value.Value, bool, error) {
	if t.cols == 0 || k < 0 || k >= t.rows*t.cols {
		return value.EmptyValue, false, mecherr.LinearOutOfBounds(k, t.rows*t.cols)
	}
	row := k / t.cols
	col := k % t.cols
	v, changed := t.columns[col].Get(row)
	return v, changed, nil
}

// Set writes v at the cell(s) resolved by row/col, only marking
// changed where the value actually differs (§4.2). On a dynamic table,
// a selector past the current shape grows rows first, then columns,
// before writing.
func (t *Table) Set(row, col register.Selector, v value.Value, resolve Resolver) error {
	if t.dynamic {
		t.growForWrite(row, col)
	}
	rows, err := t.ResolveRows(row, resolve)
	if err != nil {
		return err
	}
	cols, err := t.ResolveCols(col, resolve)
	if err != nil {
		return err
	}
	for _, c := range cols {
		for _, r := range rows {
			t.columns[c].Set(r, v)
		}
	}
	return nil
}

func (t *Table) growForWrite(row, col register.Selector) {
	needRows, needCols := t.rows, t.cols
	if row.IsIndex() {
		if want := int(row.Value()) + 1; want > needRows {
			needRows = want
		}
	}
	if col.IsIndex() {
		if want := int(col.Value()) + 1; want > needCols {
			needCols = want
		}
	}
	if needRows != t.rows || needCols != t.cols {
		t.Resize(needRows, needCols)
	}
}

// SetUncheckedLinear writes v at flat index k without consulting or
// setting the changed bit, and without the dynamic-growth path Set
// takes — used when replaying a change that must not re-trigger
// change-bit driven propagation (e.g. internal bookkeeping writes).
func (t *Table) SetUncheckedLinear(k int, v value.Value) error {
	if t.cols == 0 || k < 0 || k >= t.rows*t.cols {
		return mecherr.LinearOutOfBounds(k, t.rows*t.cols)
	}
	row := k / t.cols
	col := k % t.cols
	t.columns[col].SetUnchecked(row, v)
	return nil
}

// ResetChanged clears every column's changed mask.
func (t *Table) ResetChanged() {
	for i := range t.columns {
		t.columns[i].ResetChanged()
	}
}

// AnyChanged reports whether any column has a changed bit set.
func (t *Table) AnyChanged() bool {
	for i := range t.columns {
		if t.columns[i].AnyChanged() {
			return true
		}
	}
	return false
}
