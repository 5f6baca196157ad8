// Package value implements the tagged scalar Value, its arithmetic
// contract, and the reference-counted Column/Store that back a Table's
// cells (spec §4.1).
package value

import (
	"github.com/holiman/uint256"

	"github.com/mech-lang/core/internal/mecherr"
)

// Kind tags a Value's variant. Arithmetic between mismatched Kinds
// fails with ColumnKindMismatch; the zero Kind is Empty.
type Kind uint8

const (
	Empty Kind = iota
	I8
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
	F32
	F64
	Bool
	String // interned string, stored by its intern hash
	TableRef
	Index
)

func (k Kind) IsSignedInt() bool {
	return k == I8 || k == I16 || k == I32 || k == I64 || k == I128
}

func (k Kind) IsUnsignedInt() bool {
	return k == U8 || k == U16 || k == U32 || k == U64 || k == U128
}

func (k Kind) IsInt() bool {
	return k.IsSignedInt() || k.IsUnsignedInt()
}

func (k Kind) IsFloat() bool {
	return k == F32 || k == F64
}

func (k Kind) IsNumeric() bool {
	return k.IsInt() || k.IsFloat()
}

func (k Kind) Wide() bool {
	return k == I128 || k == U128
}

// Value is a 64-bit-class tagged scalar. Wide (128-bit) kinds carry an
// additional *uint256.Int; every other kind fits in the i/u/f scalar
// fields. Unit is a base-10 exponent tag distinguishing quantities of
// the same dimension (e.g. kg vs g); no operation rescales a mantissa
// by it, and arithmetic between mismatched non-zero Units fails with
// DomainMismatch.
type Value struct {
	Kind Kind
	Unit int32

	i int64
	u uint64
	f float64
	b bool

	strHash  uint64
	tableID  uint64
	idx      uint64
	wide     *uint256.Int
	wideSign bool // for I128: true if negative
}

// EmptyValue is the canonical Empty value. Empty propagates as
// "unknown" and is never equal to any value, including another Empty.
var EmptyValue = Value{Kind: Empty}

func FromInt64(k Kind, v int64) Value {
	if k == I128 {
		u := new(uint256.Int)
		if v < 0 {
			u.SetUint64(uint64(-v))
			return Value{Kind: k, wide: u, wideSign: true}
		}
		u.SetUint64(uint64(v))
		return Value{Kind: k, wide: u}
	}
	return Value{Kind: k, i: v}
}

func FromUint64(k Kind, v uint64) Value {
	if k == U128 {
		u := new(uint256.Int).SetUint64(v)
		return Value{Kind: k, wide: u}
	}
	return Value{Kind: k, u: v}
}

func FromFloat64(k Kind, v float64) Value {
	return Value{Kind: k, f: v}
}

func FromBool(b bool) Value {
	return Value{Kind: Bool, b: b}
}

// FromInternedString wraps the hash of an already-interned string; the
// runtime looks up the text through the string table, not here.
func FromInternedString(hash uint64) Value {
	return Value{Kind: String, strHash: hash}
}

func FromTableRef(id uint64) Value {
	return Value{Kind: TableRef, tableID: id}
}

func FromIndex(i uint64) Value {
	return Value{Kind: Index, idx: i}
}

func (v Value) Int64() int64 {
	if v.Kind == I128 {
		n := v.wide.Uint64()
		if v.wideSign {
			return -int64(n)
		}
		return int64(n)
	}
	return v.i
}

func (v Value) Uint64() uint64 {
	if v.Kind == U128 {
		return v.wide.Uint64()
	}
	return v.u
}

func (v Value) Float64() float64 { return v.f }
func (v Value) Bool() bool       { return v.b }
func (v Value) StringHash() uint64 { return v.strHash }
func (v Value) TableID() uint64    { return v.tableID }
func (v Value) IndexValue() uint64 { return v.idx }

// Zero returns the zero value of a Kind; used to pad resized columns.
func Zero(k Kind) Value {
	switch {
	case k == Empty:
		return EmptyValue
	case k.IsSignedInt():
		return FromInt64(k, 0)
	case k.IsUnsignedInt():
		return FromUint64(k, 0)
	case k.IsFloat():
		return FromFloat64(k, 0)
	case k == Bool:
		return FromBool(false)
	case k == String:
		return FromInternedString(0)
	case k == TableRef:
		return FromTableRef(0)
	case k == Index:
		return FromIndex(0)
	default:
		return EmptyValue
	}
}

func sameDomain(a, b Value) bool {
	return a.Unit == 0 || b.Unit == 0 || a.Unit == b.Unit
}

func checkKinds(a, b Value) error {
	if a.Kind == Empty || b.Kind == Empty {
		return nil // Empty propagates as unknown, checked by caller
	}
	if a.Kind != b.Kind {
		return mecherr.ColumnKindMismatch()
	}
	if !sameDomain(a, b) {
		return mecherr.DomainMismatch()
	}
	return nil
}

// arith128 runs op against the wide representation of a and b,
// producing an I128/U128 result of the same kind.
func arith128(a, b Value, signedOp func(x, y *uint256.Int, negX, negY bool) (*uint256.Int, bool), unsignedOp func(x, y *uint256.Int) *uint256.Int) Value {
	if a.Kind == I128 {
		r, neg := signedOp(a.wide, b.wide, a.wideSign, b.wideSign)
		return Value{Kind: I128, wide: r, wideSign: neg, Unit: a.Unit}
	}
	r := unsignedOp(a.wide, b.wide)
	return Value{Kind: U128, wide: r, Unit: a.Unit}
}

// Add implements the + operator across every numeric Kind. Empty
// propagates as Empty.
func Add(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return EmptyValue, nil
	}
	if err := checkKinds(a, b); err != nil {
		return EmptyValue, err
	}
	switch {
	case a.Kind == I128:
		return arith128(a, b, wideAddSigned, nil), nil
	case a.Kind == U128:
		return Value{Kind: U128, wide: new(uint256.Int).Add(a.wide, b.wide), Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		return FromInt64(a.Kind, a.i+b.i), nil
	case a.Kind.IsUnsignedInt():
		return FromUint64(a.Kind, a.u+b.u), nil
	case a.Kind.IsFloat():
		return Value{Kind: a.Kind, f: a.f + b.f, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

func Sub(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return EmptyValue, nil
	}
	if err := checkKinds(a, b); err != nil {
		return EmptyValue, err
	}
	switch {
	case a.Kind == I128:
		return arith128(a, b, wideSubSigned, nil), nil
	case a.Kind == U128:
		return Value{Kind: U128, wide: new(uint256.Int).Sub(a.wide, b.wide), Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		return FromInt64(a.Kind, a.i-b.i), nil
	case a.Kind.IsUnsignedInt():
		return FromUint64(a.Kind, a.u-b.u), nil
	case a.Kind.IsFloat():
		return Value{Kind: a.Kind, f: a.f - b.f, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

func Mul(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return EmptyValue, nil
	}
	if err := checkKinds(a, b); err != nil {
		return EmptyValue, err
	}
	switch {
	case a.Kind == I128:
		return arith128(a, b, wideMulSigned, nil), nil
	case a.Kind == U128:
		return Value{Kind: U128, wide: new(uint256.Int).Mul(a.wide, b.wide), Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		return FromInt64(a.Kind, a.i*b.i), nil
	case a.Kind.IsUnsignedInt():
		return FromUint64(a.Kind, a.u*b.u), nil
	case a.Kind.IsFloat():
		return Value{Kind: a.Kind, f: a.f * b.f, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

func Div(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return EmptyValue, nil
	}
	if err := checkKinds(a, b); err != nil {
		return EmptyValue, err
	}
	switch {
	case a.Kind == I128:
		if b.wide.IsZero() {
			return EmptyValue, mecherr.DivideByZero()
		}
		return arith128(a, b, wideDivSigned, nil), nil
	case a.Kind == U128:
		if b.wide.IsZero() {
			return EmptyValue, mecherr.DivideByZero()
		}
		return Value{Kind: U128, wide: new(uint256.Int).Div(a.wide, b.wide), Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		if b.i == 0 {
			return EmptyValue, mecherr.DivideByZero()
		}
		return FromInt64(a.Kind, a.i/b.i), nil
	case a.Kind.IsUnsignedInt():
		if b.u == 0 {
			return EmptyValue, mecherr.DivideByZero()
		}
		return FromUint64(a.Kind, a.u/b.u), nil
	case a.Kind.IsFloat():
		if b.f == 0 {
			return EmptyValue, mecherr.DivideByZero()
		}
		return Value{Kind: a.Kind, f: a.f / b.f, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

func Pow(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return EmptyValue, nil
	}
	if err := checkKinds(a, b); err != nil {
		return EmptyValue, err
	}
	switch {
	case a.Kind == I128, a.Kind == U128:
		base := new(uint256.Int).Set(a.wide)
		result := uint256.NewInt(1)
		exp := b.wide.Uint64()
		for i := uint64(0); i < exp; i++ {
			result.Mul(result, base)
		}
		neg := a.wideSign && exp%2 == 1
		return Value{Kind: a.Kind, wide: result, wideSign: neg, Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		r := int64(1)
		for i := int64(0); i < b.i; i++ {
			r *= a.i
		}
		return FromInt64(a.Kind, r), nil
	case a.Kind.IsUnsignedInt():
		r := uint64(1)
		for i := uint64(0); i < b.u; i++ {
			r *= a.u
		}
		return FromUint64(a.Kind, r), nil
	case a.Kind.IsFloat():
		r := 1.0
		n := int(b.f)
		for i := 0; i < n; i++ {
			r *= a.f
		}
		return Value{Kind: a.Kind, f: r, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

// Neg negates a signed numeric Value.
func Neg(a Value) (Value, error) {
	switch {
	case a.Kind == Empty:
		return EmptyValue, nil
	case a.Kind == I128:
		return Value{Kind: I128, wide: new(uint256.Int).Set(a.wide), wideSign: !a.wideSign, Unit: a.Unit}, nil
	case a.Kind.IsSignedInt():
		return FromInt64(a.Kind, -a.i), nil
	case a.Kind.IsFloat():
		return Value{Kind: a.Kind, f: -a.f, Unit: a.Unit}, nil
	default:
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
}

// cmp3 returns -1, 0, 1 or an error; Empty comparisons are handled by
// the callers (compare ops against Empty are always false, per
// "Empty... never equal to any value").
func cmp3(a, b Value) (int, error) {
	if err := checkKinds(a, b); err != nil {
		return 0, err
	}
	switch {
	case a.Kind == I128:
		av, bv := signedWideOrder(a), signedWideOrder(b)
		return av.Cmp(bv), nil
	case a.Kind == U128:
		return a.wide.Cmp(b.wide), nil
	case a.Kind.IsSignedInt():
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind.IsUnsignedInt():
		switch {
		case a.u < b.u:
			return -1, nil
		case a.u > b.u:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind.IsFloat():
		switch {
		case a.f < b.f:
			return -1, nil
		case a.f > b.f:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind == Bool:
		if a.b == b.b {
			return 0, nil
		}
		if !a.b && b.b {
			return -1, nil
		}
		return 1, nil
	case a.Kind == String:
		switch {
		case a.strHash < b.strHash:
			return -1, nil
		case a.strHash > b.strHash:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, mecherr.ColumnKindMismatch()
	}
}

func Greater(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return FromBool(false), nil
	}
	c, err := cmp3(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(c > 0), nil
}

func Less(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return FromBool(false), nil
	}
	c, err := cmp3(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(c < 0), nil
}

func GreaterEqual(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return FromBool(false), nil
	}
	c, err := cmp3(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(c >= 0), nil
}

func LessEqual(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return FromBool(false), nil
	}
	c, err := cmp3(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(c <= 0), nil
}

func Equal(a, b Value) (Value, error) {
	if a.Kind == Empty || b.Kind == Empty {
		return FromBool(false), nil
	}
	c, err := cmp3(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(c == 0), nil
}

func NotEqual(a, b Value) (Value, error) {
	eq, err := Equal(a, b)
	if err != nil {
		return EmptyValue, err
	}
	return FromBool(!eq.b), nil
}

func And(a, b Value) (Value, error) {
	if a.Kind != Bool || b.Kind != Bool {
		if a.Kind == Empty || b.Kind == Empty {
			return EmptyValue, nil
		}
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
	return FromBool(a.b && b.b), nil
}

func Or(a, b Value) (Value, error) {
	if a.Kind != Bool || b.Kind != Bool {
		if a.Kind == Empty || b.Kind == Empty {
			return EmptyValue, nil
		}
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
	return FromBool(a.b || b.b), nil
}

func Xor(a, b Value) (Value, error) {
	if a.Kind != Bool || b.Kind != Bool {
		if a.Kind == Empty || b.Kind == Empty {
			return EmptyValue, nil
		}
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
	return FromBool(a.b != b.b), nil
}

func Not(a Value) (Value, error) {
	if a.Kind == Empty {
		return EmptyValue, nil
	}
	if a.Kind != Bool {
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
	return FromBool(!a.b), nil
}

// Widen converts v into the representation of a different numeric
// Kind, used by aggregation to sum columns of differing kinds through
// "the widest column kind present" (§4.7) without tripping the usual
// same-kind arithmetic check. A no-op when v is already target's kind.
func Widen(v Value, target Kind) (Value, error) {
	if v.Kind == target {
		return v, nil
	}
	if v.Kind == Empty {
		return Zero(target), nil
	}
	if !v.Kind.IsNumeric() || !target.IsNumeric() {
		return EmptyValue, mecherr.ColumnKindMismatch()
	}
	switch {
	case target.IsFloat():
		var f float64
		switch {
		case v.Kind.IsSignedInt():
			f = float64(v.Int64())
		case v.Kind.IsUnsignedInt():
			f = float64(v.Uint64())
		default:
			f = v.Float64()
		}
		return Value{Kind: target, f: f, Unit: v.Unit}, nil
	case target.IsSignedInt():
		var i int64
		switch {
		case v.Kind.IsSignedInt():
			i = v.Int64()
		case v.Kind.IsUnsignedInt():
			i = int64(v.Uint64())
		default:
			i = int64(v.Float64())
		}
		r := FromInt64(target, i)
		r.Unit = v.Unit
		return r, nil
	default: // target.IsUnsignedInt()
		var u uint64
		switch {
		case v.Kind.IsUnsignedInt():
			u = v.Uint64()
		case v.Kind.IsSignedInt():
			u = uint64(v.Int64())
		default:
			u = uint64(v.Float64())
		}
		r := FromUint64(target, u)
		r.Unit = v.Unit
		return r, nil
	}
}

func signedWideOrder(v Value) *uint256.Int {
	// Orders signed 128-bit magnitudes by mapping negatives below all
	// positives: every value is offset by 2^255, negatives as
	// 2^255 - magnitude and non-negatives as 2^255 + magnitude.
	bias := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	if v.wideSign {
		return new(uint256.Int).Sub(bias, v.wide)
	}
	return new(uint256.Int).Add(bias, v.wide)
}

func wideAddSigned(x, y *uint256.Int, negX, negY bool) (*uint256.Int, bool) {
	if negX == negY {
		return new(uint256.Int).Add(x, y), negX
	}
	if x.Cmp(y) >= 0 {
		return new(uint256.Int).Sub(x, y), negX
	}
	return new(uint256.Int).Sub(y, x), negY
}

func wideSubSigned(x, y *uint256.Int, negX, negY bool) (*uint256.Int, bool) {
	return wideAddSigned(x, y, negX, !negY)
}

func wideMulSigned(x, y *uint256.Int, negX, negY bool) (*uint256.Int, bool) {
	return new(uint256.Int).Mul(x, y), negX != negY
}

func wideDivSigned(x, y *uint256.Int, negX, negY bool) (*uint256.Int, bool) {
	return new(uint256.Int).Div(x, y), negX != negY
}
