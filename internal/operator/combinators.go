package operator

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/mtable"
	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// Range builds a column counting start..end inclusive, stepping by
// step (defaults to 1 when step == 0). Non-integer bounds are a
// caller error (§4.7: "errors on non-scalar bounds" — enforced by the
// caller resolving start/end to 1×1 scalars before calling Range).
func Range(start, end, step int64, kind value.Kind) (value.Column, error) {
	if step == 0 {
		step = 1
	}
	if step > 0 && end < start {
		return value.Column{}, mecherr.Generic("table/range: end before start with positive step")
	}
	if step < 0 && end > start {
		return value.Column{}, mecherr.Generic("table/range: end after start with negative step")
	}
	n := (end-start)/step + 1
	if n < 0 {
		n = 0
	}
	col := value.NewColumn(kind, int(n))
	cur := start
	for i := 0; i < int(n); i++ {
		col.Set(i, value.FromInt64(kind, cur))
		cur += step
	}
	return col, nil
}

// HConcat implements table/horizontal-concatenate: the result is
// max(rows(Ti)) x sum(cols(Ti)); any table with exactly one row
// broadcasts that row across every output row; any other row-count
// mismatch is a DimensionMismatch.
func HConcat(tables []*mtable.Table, out *mtable.Table, resolve mtable.Resolver) error {
	maxRows := 0
	totalCols := 0
	for _, t := range tables {
		if t.Rows() > maxRows {
			maxRows = t.Rows()
		}
		totalCols += t.Cols()
	}
	for _, t := range tables {
		if t.Rows() != maxRows && t.Rows() != 1 {
			return mecherr.DimensionMismatch(mecherr.Dim{Rows: t.Rows()}, mecherr.Dim{Rows: maxRows})
		}
	}
	out.Resize(maxRows, totalCols)
	destCol := 0
	for _, t := range tables {
		for c := 0; c < t.Cols(); c++ {
			out.SetColumnKind(destCol, t.ColumnKind(c))
			for r := 0; r < maxRows; r++ {
				srcRow := r
				if t.Rows() == 1 {
					srcRow = 0
				}
				v, _, err := t.Get(register.Index(uint64(srcRow)), register.Index(uint64(c)), resolve)
				if err != nil {
					return err
				}
				if err := out.Set(register.Index(uint64(r)), register.Index(uint64(destCol)), v, resolve); err != nil {
					return err
				}
			}
			destCol++
		}
	}
	return nil
}

// VConcat implements table/vertical-concatenate: result is
// sum(rows(Ti)) x cols(T1); every operand's column count must match.
func VConcat(tables []*mtable.Table, out *mtable.Table, resolve mtable.Resolver) error {
	if len(tables) == 0 {
		return nil
	}
	cols := tables[0].Cols()
	totalRows := 0
	for _, t := range tables {
		if t.Cols() != cols {
			return mecherr.DimensionMismatch(mecherr.Dim{Cols: t.Cols()}, mecherr.Dim{Cols: cols})
		}
		totalRows += t.Rows()
	}
	out.Resize(totalRows, cols)
	for c := 0; c < cols; c++ {
		out.SetColumnKind(c, tables[0].ColumnKind(c))
	}
	destRow := 0
	for _, t := range tables {
		for r := 0; r < t.Rows(); r++ {
			for c := 0; c < cols; c++ {
				v, _, err := t.Get(register.Index(uint64(r)), register.Index(uint64(c)), resolve)
				if err != nil {
					return err
				}
				if err := out.Set(register.Index(uint64(destRow)), register.Index(uint64(c)), v, resolve); err != nil {
					return err
				}
			}
			destRow++
		}
	}
	return nil
}

// SetInto implements table/set: assign src into dst position by
// position, broadcasting a length-1 src. Lining up an indexed/masked
// destination with its source is the caller's job: block's table/set
// dispatch resolves an All source through a Table(_) destination
// selector before calling SetInto (§4.7).
func SetInto(src, dst *Iterator) error {
	n := dst.Len()
	if src.Len() < n && src.Len() != 1 {
		return mecherr.DimensionMismatch(mecherr.Dim{Rows: src.Len()}, mecherr.Dim{Rows: n})
	}
	for i := 0; i < n; i++ {
		v, _, err := src.At(i % src.Len())
		if err != nil {
			return err
		}
		if _, err := dst.Set(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Split implements table/split: one new 1-row table per row of t,
// preserving column aliases, writing a TableRef into out at the
// corresponding row. newTable allocates and registers a fresh table
// (global id assignment is the caller's concern, not the operator
// library's).
func Split(t *mtable.Table, out value.Column, newTable func(rows, cols int) *mtable.Table, resolve mtable.Resolver) error {
	for r := 0; r < t.Rows(); r++ {
		child := newTable(1, t.Cols())
		for c := 0; c < t.Cols(); c++ {
			child.SetColumnKind(c, t.ColumnKind(c))
			if alias, ok := t.Alias().AliasOf(c); ok {
				child.SetColumnAlias(c, alias, "")
			}
			v, _, err := t.Get(register.Index(uint64(r)), register.Index(uint64(c)), resolve)
			if err != nil {
				return err
			}
			if err := child.Set(register.Index(0), register.Index(uint64(c)), v, resolve); err != nil {
				return err
			}
		}
		out.Set(r, value.FromTableRef(child.ID))
	}
	return nil
}

// AddRow implements table/add-row: append src's rows to t, aligning
// columns by alias when both sides have one bound, else by position.
func AddRow(t, src *mtable.Table, resolve mtable.Resolver) error {
	if src.Cols() > t.Cols() {
		return mecherr.DimensionMismatch(mecherr.Dim{Cols: src.Cols()}, mecherr.Dim{Cols: t.Cols()})
	}
	base := t.Rows()
	t.Resize(base+src.Rows(), t.Cols())
	for sc := 0; sc < src.Cols(); sc++ {
		destCol := sc
		if alias, ok := src.Alias().AliasOf(sc); ok {
			if ix, ok := t.Alias().IndexOf(alias); ok {
				destCol = ix
			}
		}
		for r := 0; r < src.Rows(); r++ {
			v, _, err := src.Get(register.Index(uint64(r)), register.Index(uint64(sc)), resolve)
			if err != nil {
				return err
			}
			if err := t.Set(register.Index(uint64(base+r)), register.Index(uint64(destCol)), v, resolve); err != nil {
				return err
			}
		}
	}
	return nil
}

// AnySelection implements set/any: a boolean reduction over every
// position the iterator covers.
func AnySelection(it *Iterator) (bool, error) {
	for i := 0; i < it.Len(); i++ {
		v, _, err := it.At(i)
		if err != nil {
			return false, err
		}
		if v.Kind != value.Bool {
			return false, mecherr.ColumnKindMismatch()
		}
		if v.Bool() {
			return true, nil
		}
	}
	return false, nil
}
