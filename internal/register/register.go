// Package register implements register identity — the nominal triple
// (table_id, row_selector, column_selector) — and the alias/equivalence
// graph used to decide which registers a cell write dirties (§4.5).
package register

// Selector is one axis of a Register: All, a concrete Index, an Alias
// hash, a reference to another Table's values, or None.
type Selector struct {
	kind selKind
	k    uint64
}

type selKind uint8

const (
	selAll selKind = iota
	selIndex
	selAlias
	selTable
	selNone
)

func All() Selector           { return Selector{kind: selAll} }
func None() Selector          { return Selector{kind: selNone} }
func Index(k uint64) Selector { return Selector{kind: selIndex, k: k} }
func Alias(hash uint64) Selector { return Selector{kind: selAlias, k: hash} }
func Table(id uint64) Selector   { return Selector{kind: selTable, k: id} }

func (s Selector) IsAll() bool   { return s.kind == selAll }
func (s Selector) IsNone() bool  { return s.kind == selNone }
func (s Selector) IsIndex() bool { return s.kind == selIndex }
func (s Selector) IsAlias() bool { return s.kind == selAlias }
func (s Selector) IsTable() bool { return s.kind == selTable }

// Value returns the selector's payload: the index, alias hash, or
// referenced table id. Meaningless for All/None.
func (s Selector) Value() uint64 { return s.k }

// Unwrap implements the register-hashing rule from §4.5: Index(k)→k,
// Alias(a)→a, Table(id)→id, All|None→0.
func (s Selector) Unwrap() uint64 {
	switch s.kind {
	case selIndex, selAlias, selTable:
		return s.k
	default:
		return 0
	}
}

func (s Selector) String() string {
	switch s.kind {
	case selAll:
		return "All"
	case selNone:
		return "None"
	case selIndex:
		return "Index"
	case selAlias:
		return "Alias"
	case selTable:
		return "Table"
	default:
		return "?"
	}
}

// Register is the nominal triple (table_id, row_selector,
// column_selector). Registers are identity tokens only; they are not
// storage.
type Register struct {
	TableID uint64
	Row     Selector
	Col     Selector
}

func New(table uint64, row, col Selector) Register {
	return Register{TableID: table, Row: row, Col: col}
}
