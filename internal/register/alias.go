package register

// AliasBimap is a table's column-index↔alias bimap: any alias maps to
// exactly one column index and vice versa (§4.2 invariant).
type AliasBimap struct {
	idxToAlias map[int]uint64
	aliasToIdx map[uint64]int
}

func NewAliasBimap() *AliasBimap {
	return &AliasBimap{
		idxToAlias: make(map[int]uint64),
		aliasToIdx: make(map[uint64]int),
	}
}

// Bind links column index ix to alias, replacing any prior link either
// held (an alias maps to exactly one index, an index to exactly one
// alias).
func (b *AliasBimap) Bind(ix int, alias uint64) {
	if old, ok := b.idxToAlias[ix]; ok {
		delete(b.aliasToIdx, old)
	}
	if old, ok := b.aliasToIdx[alias]; ok {
		delete(b.idxToAlias, old)
	}
	b.idxToAlias[ix] = alias
	b.aliasToIdx[alias] = ix
}

func (b *AliasBimap) AliasOf(ix int) (uint64, bool) {
	a, ok := b.idxToAlias[ix]
	return a, ok
}

func (b *AliasBimap) IndexOf(alias uint64) (int, bool) {
	ix, ok := b.aliasToIdx[alias]
	return ix, ok
}

// colKey is the canonical identity of a column selector once resolved
// through the bimap: Index(i) and its bound Alias(a) resolve to the
// same key (rule 2, §4.5).
type colKey struct {
	resolved bool
	key      uint64
}

func canonicalCol(s Selector, bimap *AliasBimap) colKey {
	switch {
	case s.IsIndex():
		if a, ok := bimap.AliasOf(int(s.Value())); ok {
			return colKey{resolved: true, key: a}
		}
		return colKey{resolved: false, key: s.Value()}
	case s.IsAlias():
		return colKey{resolved: true, key: s.Value()}
	default:
		return colKey{}
	}
}

func colsEqual(a, b Selector, bimap *AliasBimap) bool {
	if a.IsAll() || b.IsAll() {
		return a.IsAll() && b.IsAll()
	}
	ca, cb := canonicalCol(a, bimap), canonicalCol(b, bimap)
	return ca == cb
}

func rowsEqual(a, b Selector) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case selAll, selNone:
		return true
	default:
		return a.k == b.k
	}
}

// Covers implements the equivalence rules of §4.5: does a write to the
// concrete register dirty a block watching the watched register?
//
//  1. (t, All, All) covers every (t, *, *) register.
//  2. (t, All, Index(i)) and (t, All, Alias(a)) are equivalent iff the
//     bimap links i↔a.
//  3. (t, All, c) covers every (t, Index(k), c).
//  4. Nothing else is equivalent by construction.
func Covers(watched, concrete Register, bimap *AliasBimap) bool {
	if watched.TableID != concrete.TableID {
		return false
	}
	if watched.Row.IsAll() && watched.Col.IsAll() {
		return true // rule 1
	}
	if watched.Row.IsAll() && colsEqual(watched.Col, concrete.Col, bimap) {
		return true // rule 3 (and rule 2, folded into colsEqual)
	}
	if rowsEqual(watched.Row, concrete.Row) && colsEqual(watched.Col, concrete.Col, bimap) {
		return true
	}
	return false
}
