// Package operator implements the vectorized operator library that
// consumes and produces ValueIterators: element-wise math/compare/
// logic, aggregation, table combinators and selection (§4.7).
package operator

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/value"
)

// ShapeKind classifies an iterator's shape for the binary-op broadcast
// protocol: Scalar | Column(n) | Matrix(r,c) | Dynamic(r,c) | Pending(id).
type ShapeKind int

const (
	ShapeScalar ShapeKind = iota
	ShapeColumn
	ShapeMatrix
	ShapeDynamic
	ShapePending
)

type Shape struct {
	Kind      ShapeKind
	Rows      int
	Cols      int
	PendingID uint64
}

func (s Shape) IsScalar() bool { return s.Kind == ShapeScalar }

// Column is one column's worth of positions to iterate: the backing
// Column handle plus the row indices selected into it.
type Column struct {
	col  value.Column
	rows []int
}

// Iterator is the ValueIterator: a (column_handle, row_iter, col_iter)
// triple, flattened into a list of columns each carrying its own row
// selection, iterated column-major (matches Table's column-oriented
// storage).
type Iterator struct {
	Table   uint64
	Columns []Column
	Dynamic bool // true when the source table is a dynamic table (growable on write)
}

// NewIterator builds an Iterator over the resolved (rows, cols) pairs
// of a table.
func NewIterator(tableID uint64, cols []value.Column, rowSets [][]int, dynamic bool) *Iterator {
	columns := make([]Column, len(cols))
	for i, c := range cols {
		columns[i] = Column{col: c, rows: rowSets[i]}
	}
	return &Iterator{Table: tableID, Columns: columns, Dynamic: dynamic}
}

// Len is the total number of (row, col) positions the iterator covers.
func (it *Iterator) Len() int {
	n := 0
	for _, c := range it.Columns {
		n += len(c.rows)
	}
	return n
}

// Shape classifies the iterator per the shape protocol.
func (it *Iterator) Shape() Shape {
	if it.Dynamic {
		return Shape{Kind: ShapeDynamic, Rows: it.rowsOf(0), Cols: len(it.Columns)}
	}
	if len(it.Columns) == 1 && len(it.Columns[0].rows) == 1 {
		return Shape{Kind: ShapeScalar}
	}
	if len(it.Columns) == 1 {
		return Shape{Kind: ShapeColumn, Rows: len(it.Columns[0].rows)}
	}
	return Shape{Kind: ShapeMatrix, Rows: it.rowsOf(0), Cols: len(it.Columns)}
}

func (it *Iterator) rowsOf(colIx int) int {
	if colIx >= len(it.Columns) {
		return 0
	}
	return len(it.Columns[colIx].rows)
}

// At returns the value and changed-bit at flat position i, walking
// columns in order.
func (it *Iterator) At(i int) (value.Value, bool, error) {
	for _, c := range it.Columns {
		if i < len(c.rows) {
			v, changed := c.col.Get(c.rows[i])
			return v, changed, nil
		}
		i -= len(c.rows)
	}
	return value.EmptyValue, false, mecherr.LinearOutOfBounds(i, it.Len())
}

// Set writes v at flat position i, reporting whether the write
// actually changed anything (skip-redundant-write discipline, §4.7).
func (it *Iterator) Set(i int, v value.Value) (bool, error) {
	for _, c := range it.Columns {
		if i < len(c.rows) {
			return c.col.Set(c.rows[i], v), nil
		}
		i -= len(c.rows)
	}
	return false, mecherr.LinearOutOfBounds(i, it.Len())
}

// Kind reports the Value Kind of the iterator's first column. Callers
// widen across columns themselves where a combinator spans more than
// one kind (table/horizontal-concatenate et al).
func (it *Iterator) Kind() value.Kind {
	if len(it.Columns) == 0 {
		return value.Empty
	}
	return it.Columns[0].col.Kind()
}
