package value

import (
	"github.com/bits-and-blooms/bitset"
)

// columnData is the shared, interior-mutable backing of a Column.
// Every Column handle that was produced by Share() or View() on the
// same columnData sees the other's writes — this is how a sub-view
// into a table participates in a computation without copying (§4.1).
type columnData struct {
	kind    Kind
	values  []Value
	changed *bitset.BitSet
	refs    int32
}

// Column is a typed, reference-counted, interior-mutable vector of one
// Value Kind, with a per-element "changed" mask.
type Column struct {
	data *columnData
}

// NewColumn allocates a fresh Column of Kind k and length n, filled
// with the Kind's zero value.
func NewColumn(k Kind, n int) Column {
	values := make([]Value, n)
	zero := Zero(k)
	for i := range values {
		values[i] = zero
	}
	return Column{data: &columnData{
		kind:    k,
		values:  values,
		changed: bitset.New(uint(n)),
		refs:    1,
	}}
}

// Share returns a new handle to the same underlying buffer, bumping
// the reference count. Writes through either handle are visible
// through the other.
func (c Column) Share() Column {
	c.data.refs++
	return c
}

// Release decrements the reference count. The caller does not need to
// free anything explicitly; Go's GC reclaims the backing array once
// no handle references it. refs is kept for the "at most one logical
// writer" bookkeeping (§5): RefCount reports it, so a caller can tell
// whether a column is still aliased elsewhere.
func (c Column) Release() {
	if c.data.refs > 0 {
		c.data.refs--
	}
}

func (c Column) RefCount() int32 { return c.data.refs }

func (c Column) Kind() Kind { return c.data.kind }

func (c Column) Len() int { return len(c.data.values) }

// Resize changes the column's length, padding new elements with the
// column's zero value and truncating the changed mask as needed. The
// caller must hold the only outstanding mutable view (§5); Resize does
// not itself check refs, callers needing that guarantee check RefCount.
func (c Column) Resize(n int) {
	cur := len(c.data.values)
	if n == cur {
		return
	}
	if n < cur {
		c.data.values = c.data.values[:n]
		nb := bitset.New(uint(n))
		for i := 0; i < n; i++ {
			if c.data.changed.Test(uint(i)) {
				nb.Set(uint(i))
			}
		}
		c.data.changed = nb
		return
	}
	zero := Zero(c.data.kind)
	grown := make([]Value, n)
	copy(grown, c.data.values)
	for i := cur; i < n; i++ {
		grown[i] = zero
	}
	c.data.values = grown
	nb := bitset.New(uint(n))
	for i := 0; i < cur; i++ {
		if c.data.changed.Test(uint(i)) {
			nb.Set(uint(i))
		}
	}
	c.data.changed = nb
}

// SetKind rewrites the column's declared Kind (used by SetColumnKind)
// and re-zeroes every element to the new Kind's zero value.
func (c Column) SetKind(k Kind) {
	c.data.kind = k
	zero := Zero(k)
	for i := range c.data.values {
		c.data.values[i] = zero
	}
}

// Get returns the value at position i and whether it is marked
// changed.
func (c Column) Get(i int) (Value, bool) {
	return c.data.values[i], c.data.changed.Test(uint(i))
}

// Set writes v at position i only if it differs from the current
// value, in which case the changed bit is set (§4.2). Returns whether
// a write occurred.
func (c Column) Set(i int, v Value) bool {
	if valuesEqual(c.data.values[i], v) {
		return false
	}
	c.data.values[i] = v
	c.data.changed.Set(uint(i))
	return true
}

// SetUnchecked writes v at position i unconditionally, without
// consulting or touching the changed bit.
func (c Column) SetUnchecked(i int, v Value) {
	c.data.values[i] = v
}

func (c Column) Changed(i int) bool {
	return c.data.changed.Test(uint(i))
}

func (c Column) ResetChanged() {
	c.data.changed.ClearAll()
}

// AnyChanged reports whether at least one element is marked changed.
func (c Column) AnyChanged() bool {
	return c.data.changed.Any()
}

func valuesEqual(a, b Value) bool {
	if a.Kind == Empty || b.Kind == Empty {
		return false // Empty is never equal to any value, including Empty
	}
	eq, err := Equal(a, b)
	if err != nil {
		return false
	}
	return eq.Bool()
}
