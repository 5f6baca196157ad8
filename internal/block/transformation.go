// Package block implements the Transformation and Block types: a
// declarative, re-executable unit with inputs, outputs and a plan
// (§4.6).
package block

import (
	"fmt"

	"github.com/mech-lang/core/internal/register"
	"github.com/mech-lang/core/internal/value"
)

// Transformation is one declarative step of a block's plan. The
// concrete variants are NewTable, Constant, ColumnAlias, Set,
// Whenever, Function, Select and TableReference (§4.6); the front end
// supplies these verbatim, the runtime never parses source (§6).
type Transformation interface {
	debugForm() string
}

// NewTable allocates a table, local to the block unless Global is set,
// in which case register_transformations queues a change.NewTable
// instead of creating it directly.
type NewTable struct {
	Table  uint64
	Rows   int
	Cols   int
	Global bool
}

func (n NewTable) debugForm() string {
	return fmt.Sprintf("NewTable{table:%d,rows:%d,cols:%d,global:%v}", n.Table, n.Rows, n.Cols, n.Global)
}

// Constant writes a scalar into a 1x1 table. Unit is part of the debug
// form (and so the content hash), but Solve writes Value as given: the
// mantissa is not rescaled by Unit.
type Constant struct {
	Table uint64
	Value value.Value
	Unit  int32
}

func (c Constant) debugForm() string {
	return fmt.Sprintf("Constant{table:%d,kind:%d,bits:%#x,unit:%d}", c.Table, c.Value.Kind, c.Value.Uint64(), c.Unit)
}

// ColumnAlias binds an alias to a column index, updating the alias
// graph.
type ColumnAlias struct {
	Table uint64
	Ix    int
	Alias uint64
}

func (c ColumnAlias) debugForm() string {
	return fmt.Sprintf("ColumnAlias{table:%d,ix:%d,alias:%#x}", c.Table, c.Ix, c.Alias)
}

// Set marks that the block writes to this output register; it carries
// no value itself — the actual write comes from a Function or Select
// step earlier in the plan.
type Set struct {
	Table uint64
	Row   register.Selector
	Col   register.Selector
}

func (s Set) debugForm() string {
	return fmt.Sprintf("Set{table:%d,row:%s,col:%s}", s.Table, s.Row, s.Col)
}

// Whenever declares that the block fires on a change to any of
// Registers; its own firing consumes those registers from the block's
// ready set.
type Whenever struct {
	Table     uint64
	Row       register.Selector
	Col       register.Selector
	Registers []register.Register
}

func (w Whenever) debugForm() string {
	return fmt.Sprintf("Whenever{table:%d,row:%s,col:%s,registers:%d}", w.Table, w.Row, w.Col, len(w.Registers))
}

// Arg is one (arg_name_hash, table_id, row_sel, col_sel) function
// argument.
type Arg struct {
	NameHash uint64
	Table    uint64
	Row      register.Selector
	Col      register.Selector
}

// Out is a function's (table_id, row_sel, col_sel) output register.
type Out struct {
	Table uint64
	Row   register.Selector
	Col   register.Selector
}

// Function calls an operator by its 56-bit name hash.
type Function struct {
	NameHash uint64
	Args     []Arg
	Out      Out
}

func (f Function) debugForm() string {
	return fmt.Sprintf("Function{name:%#x,args:%d,out:table%d}", f.NameHash, len(f.Args), f.Out.Table)
}

// Select materializes a subscripted view into Out. Only the column
// axis is taken from Indices: the last Index or Alias entry replaces
// Col, other entries are ignored, and Row is used as given.
type Select struct {
	Table   uint64
	Row     register.Selector
	Col     register.Selector
	Indices []register.Selector
	Out     Out
}

func (s Select) debugForm() string {
	return fmt.Sprintf("Select{table:%d,indices:%d,out:table%d}", s.Table, len(s.Indices), s.Out.Table)
}

// TableReference sets a 1x1 table to hold a reference to another
// table.
type TableReference struct {
	Table     uint64
	Reference uint64
}

func (t TableReference) debugForm() string {
	return fmt.Sprintf("TableReference{table:%d,reference:%d}", t.Table, t.Reference)
}
