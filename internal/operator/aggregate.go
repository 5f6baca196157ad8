package operator

import "github.com/mech-lang/core/internal/value"

// sumSeedKind picks the accumulator kind for a sum: the source's own
// kind when numeric (§8 "stats/sum(column:) over an empty column
// yields the kind's zero" — the column's declared Kind, even at zero
// length), falling back to I64 for a kindless (Empty) source.
func sumSeedKind(k value.Kind) value.Kind {
	if k.IsNumeric() {
		return k
	}
	return value.I64
}

// SumColumn sums src, optionally gated by a boolean index column
// (original_source's stats.rs "boolean index column" mode). gate, when
// non-nil, restricts the sum to rows where the gate column holds true.
func SumColumn(src *Iterator, gate *Iterator) (value.Value, error) {
	kind := sumSeedKind(src.Kind())
	acc := value.Zero(kind)
	for i := 0; i < src.Len(); i++ {
		if gate != nil {
			g, _, err := gate.At(i % gate.Len())
			if err != nil {
				return value.EmptyValue, err
			}
			if !g.Bool() {
				continue
			}
		}
		v, _, err := src.At(i)
		if err != nil {
			return value.EmptyValue, err
		}
		vw, err := value.Widen(v, kind)
		if err != nil {
			return value.EmptyValue, err
		}
		sum, err := value.Add(acc, vw)
		if err != nil {
			return value.EmptyValue, err
		}
		acc = sum
	}
	return acc, nil
}

// SumRow sums a table's columns row by row, writing one value per row
// into out (an n×1 column). Columns of differing kinds are summed
// through the widest kind present across the table, converting each
// cell into that kind before adding (§4.7 "integer widths
// saturate-on-type-mismatch by converting through the widest column
// kind present").
func SumRow(rowMajor *Iterator, rows int, out *Iterator) error {
	cols := len(rowMajor.Columns)
	if cols == 0 {
		return nil
	}
	kind := sumSeedKind(widestColumnKind(rowMajor))
	for r := 0; r < rows; r++ {
		acc := value.Zero(kind)
		for _, c := range rowMajor.Columns {
			if r >= len(c.rows) {
				continue
			}
			v, _ := c.col.Get(c.rows[r])
			vw, err := value.Widen(v, kind)
			if err != nil {
				return err
			}
			sum, err := value.Add(acc, vw)
			if err != nil {
				return err
			}
			acc = sum
		}
		if _, err := out.Set(r, acc); err != nil {
			return err
		}
	}
	return nil
}

// SumTable sums every cell of a table into one 1×1 result, widening
// through the widest column kind present (§4.7).
func SumTable(t *Iterator) (value.Value, error) {
	kind := sumSeedKind(widestColumnKind(t))
	acc := value.Zero(kind)
	for i := 0; i < t.Len(); i++ {
		v, _, err := t.At(i)
		if err != nil {
			return value.EmptyValue, err
		}
		vw, err := value.Widen(v, kind)
		if err != nil {
			return value.EmptyValue, err
		}
		sum, err := value.Add(acc, vw)
		if err != nil {
			return value.EmptyValue, err
		}
		acc = sum
	}
	return acc, nil
}

// widestColumnKind folds widestKind over every column the iterator
// covers, starting from its first column's kind.
func widestColumnKind(it *Iterator) value.Kind {
	if len(it.Columns) == 0 {
		return value.Empty
	}
	k := it.Columns[0].col.Kind()
	for _, c := range it.Columns[1:] {
		k = widestKind(k, c.col.Kind())
	}
	return k
}

// widestKind picks the wider of two numeric kinds by bit width,
// preferring a (a still wins ties).
func widestKind(a, b value.Kind) value.Kind {
	if !a.IsNumeric() {
		return b
	}
	if !b.IsNumeric() {
		return a
	}
	if width(a) >= width(b) {
		return a
	}
	return b
}

func width(k value.Kind) int {
	switch k {
	case value.I8, value.U8:
		return 8
	case value.I16, value.U16:
		return 16
	case value.I32, value.U32, value.F32:
		return 32
	case value.I64, value.U64, value.F64:
		return 64
	case value.I128, value.U128:
		return 128
	default:
		return 0
	}
}
