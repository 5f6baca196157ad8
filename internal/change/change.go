// Package change implements the Change/Transaction model: the only way
// tables mutate (§4.3).
package change

import (
	"sort"

	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// tier orders change kinds within a Transaction: shape, then metadata,
// then data (§4.3, §5 ordering rule 2).
type tier int

const (
	tierShape tier = iota
	tierMetadata
	tierData
)

// Change is one mutation to a table. The concrete variants are
// NewTable, SetColumnAlias, SetColumnKind, Set, SetTable, and Resize.
type Change interface {
	tier() tier
}

type NewTable struct {
	Table uint64
	Rows  int
	Cols  int
}

func (NewTable) tier() tier { return tierShape }

type Resize struct {
	Table uint64
	Rows  int
	Cols  int
}

func (Resize) tier() tier { return tierShape }

type SetColumnAlias struct {
	Table uint64
	Ix    int
	Alias uint64
	// Name is a debug rendering aid only (§6), never consulted for identity.
	Name string
}

func (SetColumnAlias) tier() tier { return tierMetadata }

type SetColumnKind struct {
	Table uint64
	Ix    int
	Kind  value.Kind
}

func (SetColumnKind) tier() tier { return tierMetadata }

// Write is one (row_selector, col_selector, value) triple within a Set
// change.
type Write struct {
	Row   register.Selector
	Col   register.Selector
	Value value.Value
}

type Set struct {
	Table  uint64
	Writes []Write
}

func (Set) tier() tier { return tierData }

// SetTable replaces a table's entire column set with data, one Column
// per destination column index.
type SetTable struct {
	Table uint64
	Data  []value.Column
}

func (SetTable) tier() tier { return tierData }

// Transaction is an ordered list of changes, applied atomically with
// respect to block scheduling: no block executes mid-transaction
// (§4.3).
type Transaction struct {
	Changes []Change
}

// Ordered returns a copy of the transaction's changes sorted
// stably into shape → metadata → data tiers, preserving relative
// order within a tier.
func (t Transaction) Ordered() []Change {
	out := make([]Change, len(t.Changes))
	copy(out, t.Changes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].tier() < out[j].tier()
	})
	return out
}
