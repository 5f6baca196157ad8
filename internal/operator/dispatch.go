package operator

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/register"
)

// BinaryFn is the shape every binary operator in the dispatch table
// has: resolved lhs/rhs/out iterators, apply and report.
type BinaryFn func(lhs, rhs, out *Iterator) error

// dispatch is keyed by the 56-bit hash of the operator's name
// (§4.6 "Function{name, ...}"; §6 "identifier hashing"), the same
// hashing rule used for register and block-content hashes.
var dispatch = map[uint64]BinaryFn{
	register.HashString56("math/add"): Add,
	register.HashString56("math/subtract"): Sub,
	register.HashString56("math/multiply"): Mul,
	register.HashString56("math/divide"): Div,
	register.HashString56("math/power"): Pow,

	register.HashString56("compare/greater-than"): Greater,
	register.HashString56("compare/less-than"): Less,
	register.HashString56("compare/greater-than-equal"): GreaterEqual,
	register.HashString56("compare/less-than-equal"): LessEqual,
	register.HashString56("compare/equal"): Equal,
	register.HashString56("compare/not-equal"): NotEqual,

	register.HashString56("logic/and"): And,
	register.HashString56("logic/or"): Or,
	register.HashString56("logic/xor"): Xor,
}

// Dispatch looks up and invokes the binary operator named by its
// 56-bit name hash, reporting MissingFunction when no operator with
// that hash is registered.
func Dispatch(nameHash uint64, lhs, rhs, out *Iterator) error {
	fn, ok := dispatch[nameHash]
	if !ok {
		return mecherr.MissingFunction(nameHash)
	}
	return fn(lhs, rhs, out)
}

// Lookup reports whether a name hash has a registered binary operator,
// without invoking it.
func Lookup(nameHash uint64) (BinaryFn, bool) {
	fn, ok := dispatch[nameHash]
	return fn, ok
}
