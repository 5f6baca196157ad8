package operator

import (
	"github.com/mech-lang/core/internal/mecherr"
	"github.com/mech-lang/core/internal/value"
)

// BinaryScalarFn is one scalar operator: Add, Sub, Mul, Div, Pow, the
// comparisons and the boolean ops all have this shape.
type BinaryScalarFn func(a, b value.Value) (value.Value, error)

// broadcastLen resolves the shape-protocol table for two operand
// lengths: equal lengths pass through, a length-1 operand broadcasts,
// anything else is a DimensionMismatch (§4.7).
func broadcastLen(lhs, rhs int) (int, error) {
	switch {
	case lhs == rhs:
		return lhs, nil
	case lhs == 1:
		return rhs, nil
	case rhs == 1:
		return lhs, nil
	default:
		return 0, mecherr.DimensionMismatch(mecherr.Dim{Rows: lhs}, mecherr.Dim{Rows: rhs})
	}
}

// ElementWise applies fn pairwise over lhs and rhs, broadcasting a
// length-1 operand, and writes into out (which must already be sized
// to the broadcast length). A write is skipped when neither input's
// changed bit is set and out already holds a value — the change-driven
// sparse update discipline (§4.7).
func ElementWise(lhs, rhs, out *Iterator, fn BinaryScalarFn) error {
	n, err := broadcastLen(lhs.Len(), rhs.Len())
	if err != nil {
		return err
	}
	if out.Len() < n {
		return mecherr.DimensionMismatch(mecherr.Dim{Rows: out.Len()}, mecherr.Dim{Rows: n})
	}
	for i := 0; i < n; i++ {
		la, lchanged, err := lhs.At(i % lhs.Len())
		if err != nil {
			return err
		}
		ra, rchanged, err := rhs.At(i % rhs.Len())
		if err != nil {
			return err
		}
		if !lchanged && !rchanged {
			if cur, _, _ := out.At(i); cur.Kind != value.Empty {
				continue
			}
		}
		result, err := fn(la, ra)
		if err != nil {
			return err
		}
		if _, err := out.Set(i, result); err != nil {
			return err
		}
	}
	return nil
}

// UnaryScalarFn is one unary scalar operator: Neg, Not.
type UnaryScalarFn func(a value.Value) (value.Value, error)

// Unary applies fn elementwise over src into out, honoring the same
// skip-redundant-write rule as ElementWise.
func Unary(src, out *Iterator, fn UnaryScalarFn) error {
	n := src.Len()
	if out.Len() < n {
		return mecherr.DimensionMismatch(mecherr.Dim{Rows: out.Len()}, mecherr.Dim{Rows: n})
	}
	for i := 0; i < n; i++ {
		a, changed, err := src.At(i)
		if err != nil {
			return err
		}
		if !changed {
			if cur, _, _ := out.At(i); cur.Kind != value.Empty {
				continue
			}
		}
		result, err := fn(a)
		if err != nil {
			return err
		}
		if _, err := out.Set(i, result); err != nil {
			return err
		}
	}
	return nil
}

func addFn(a, b value.Value) (value.Value, error) { return value.Add(a, b) }
func subFn(a, b value.Value) (value.Value, error) { return value.Sub(a, b) }
func mulFn(a, b value.Value) (value.Value, error) { return value.Mul(a, b) }
func divFn(a, b value.Value) (value.Value, error) { return value.Div(a, b) }
func powFn(a, b value.Value) (value.Value, error) { return value.Pow(a, b) }
func gtFn(a, b value.Value) (value.Value, error)  { return value.Greater(a, b) }
func ltFn(a, b value.Value) (value.Value, error)  { return value.Less(a, b) }
func geFn(a, b value.Value) (value.Value, error)  { return value.GreaterEqual(a, b) }
func leFn(a, b value.Value) (value.Value, error)  { return value.LessEqual(a, b) }
func eqFn(a, b value.Value) (value.Value, error)  { return value.Equal(a, b) }
func neFn(a, b value.Value) (value.Value, error)  { return value.NotEqual(a, b) }
func andFn(a, b value.Value) (value.Value, error) { return value.And(a, b) }
func orFn(a, b value.Value) (value.Value, error)  { return value.Or(a, b) }
func xorFn(a, b value.Value) (value.Value, error) { return value.Xor(a, b) }
func negFn(a value.Value) (value.Value, error)    { return value.Neg(a) }
func notFn(a value.Value) (value.Value, error)    { return value.Not(a) }

func Add(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, addFn) }
func Sub(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, subFn) }
func Mul(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, mulFn) }
func Div(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, divFn) }
func Pow(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, powFn) }

func Greater(lhs, rhs, out *Iterator) error      { return ElementWise(lhs, rhs, out, gtFn) }
func Less(lhs, rhs, out *Iterator) error         { return ElementWise(lhs, rhs, out, ltFn) }
func GreaterEqual(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, geFn) }
func LessEqual(lhs, rhs, out *Iterator) error    { return ElementWise(lhs, rhs, out, leFn) }
func Equal(lhs, rhs, out *Iterator) error        { return ElementWise(lhs, rhs, out, eqFn) }
func NotEqual(lhs, rhs, out *Iterator) error     { return ElementWise(lhs, rhs, out, neFn) }

func And(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, andFn) }
func Or(lhs, rhs, out *Iterator) error  { return ElementWise(lhs, rhs, out, orFn) }
func Xor(lhs, rhs, out *Iterator) error { return ElementWise(lhs, rhs, out, xorFn) }

func Neg(src, out *Iterator) error { return Unary(src, out, negFn) }
func Not(src, out *Iterator) error { return Unary(src, out, notFn) }
