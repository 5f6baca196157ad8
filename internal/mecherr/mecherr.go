// Package mecherr defines the kind-tagged error taxonomy attached to blocks.
package mecherr

import (
	"fmt"
)

// Kind identifies the category of a MechError, independent of which
// block raised it.
type Kind int

const (
	KindMissingTable Kind = iota
	KindMissingBlock
	KindPendingTable
	KindDimensionMismatch
	KindLinearSubscriptOutOfBounds
	KindMissingFunction
	KindZeroIndex
	KindBlockDisabled
	KindUnknownFunctionArgument
	KindUnknownColumnKind
	KindUnhandledFunctionArgumentKind
	KindUnhandledTableShape
	KindTooManyInputArguments
	KindFileNotFound
	KindGenericError
	KindParserError
	KindColumnKindMismatch
	KindDomainMismatch
	KindDivideByZero
	KindCycle
)

func (k Kind) String() string {
	switch k {
	case KindMissingTable:
		return "MissingTable"
	case KindMissingBlock:
		return "MissingBlock"
	case KindPendingTable:
		return "PendingTable"
	case KindDimensionMismatch:
		return "DimensionMismatch"
	case KindLinearSubscriptOutOfBounds:
		return "LinearSubscriptOutOfBounds"
	case KindMissingFunction:
		return "MissingFunction"
	case KindZeroIndex:
		return "ZeroIndex"
	case KindBlockDisabled:
		return "BlockDisabled"
	case KindUnknownFunctionArgument:
		return "UnknownFunctionArgument"
	case KindUnknownColumnKind:
		return "UnknownColumnKind"
	case KindUnhandledFunctionArgumentKind:
		return "UnhandledFunctionArgumentKind"
	case KindUnhandledTableShape:
		return "UnhandledTableShape"
	case KindTooManyInputArguments:
		return "TooManyInputArguments"
	case KindFileNotFound:
		return "FileNotFound"
	case KindGenericError:
		return "GenericError"
	case KindParserError:
		return "ParserError"
	case KindColumnKindMismatch:
		return "ColumnKindMismatch"
	case KindDomainMismatch:
		return "DomainMismatch"
	case KindDivideByZero:
		return "DivideByZero"
	case KindCycle:
		return "Cycle"
	default:
		return "Unknown"
	}
}

// Dim is one operand's (rows, cols) shape, used by DimensionMismatch.
type Dim struct {
	Rows int
	Cols int
}

// MechError is a kind-tagged error, optionally carrying the id of the
// block that raised it and kind-specific payload data.
//
// Soft errors (PendingTable) park a block as Unsatisfied and are
// cleared automatically on retry. Everything else is hard: it marks
// the block Error and accumulates in its error list until an external
// caller clears it (§7).
type MechError struct {
	BlockID uint64
	Kind    Kind

	// Payload, populated according to Kind. Only the field(s) relevant
	// to the Kind are meaningful.
	TableID   uint64
	Dims      []Dim
	Want, Have int
	Hash      uint64
	ShapeName string
	Given, Expected int
	Path      string
	Msg       string
}

func (e *MechError) Error() string {
	switch e.Kind {
	case KindMissingTable:
		return fmt.Sprintf("missing table %d", e.TableID)
	case KindMissingBlock:
		return fmt.Sprintf("missing block %d", e.BlockID)
	case KindPendingTable:
		return fmt.Sprintf("pending table %d", e.TableID)
	case KindDimensionMismatch:
		return fmt.Sprintf("dimension mismatch %v", e.Dims)
	case KindLinearSubscriptOutOfBounds:
		return fmt.Sprintf("linear subscript out of bounds: want %d, have %d", e.Want, e.Have)
	case KindMissingFunction:
		return fmt.Sprintf("missing function %#x", e.Hash)
	case KindZeroIndex:
		return "zero index is not a valid subscript"
	case KindBlockDisabled:
		return fmt.Sprintf("block %d is disabled", e.BlockID)
	case KindUnknownFunctionArgument:
		return fmt.Sprintf("unknown function argument %#x", e.Hash)
	case KindUnknownColumnKind:
		return fmt.Sprintf("unknown column kind %#x", e.Hash)
	case KindUnhandledFunctionArgumentKind:
		return fmt.Sprintf("unhandled function argument kind %s", e.ShapeName)
	case KindUnhandledTableShape:
		return fmt.Sprintf("unhandled table shape %s", e.ShapeName)
	case KindTooManyInputArguments:
		return fmt.Sprintf("too many input arguments: given %d, expected %d", e.Given, e.Expected)
	case KindFileNotFound:
		return fmt.Sprintf("file not found: %s", e.Path)
	case KindColumnKindMismatch:
		return "column kind mismatch"
	case KindDomainMismatch:
		return "domain (unit) mismatch"
	case KindDivideByZero:
		return "divide by zero"
	case KindCycle:
		return fmt.Sprintf("block %d exceeded iteration cap", e.BlockID)
	case KindParserError:
		return fmt.Sprintf("parser error: %s", e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

// IsSoft reports whether the error should park a block as Unsatisfied
// (and be retried) rather than transition it to the terminal Error
// state.
func (e *MechError) IsSoft() bool {
	return e.Kind == KindPendingTable
}

func Missing(table uint64) *MechError {
	return &MechError{Kind: KindMissingTable, TableID: table}
}

func Pending(table uint64) *MechError {
	return &MechError{Kind: KindPendingTable, TableID: table}
}

func DimensionMismatch(dims ...Dim) *MechError {
	return &MechError{Kind: KindDimensionMismatch, Dims: dims}
}

func LinearOutOfBounds(want, have int) *MechError {
	return &MechError{Kind: KindLinearSubscriptOutOfBounds, Want: want, Have: have}
}

func MissingFunction(hash uint64) *MechError {
	return &MechError{Kind: KindMissingFunction, Hash: hash}
}

func Generic(msg string) *MechError {
	return &MechError{Kind: KindGenericError, Msg: msg}
}

func Cycle(blockID uint64) *MechError {
	return &MechError{Kind: KindCycle, BlockID: blockID}
}

func ColumnKindMismatch() *MechError {
	return &MechError{Kind: KindColumnKindMismatch}
}

func DomainMismatch() *MechError {
	return &MechError{Kind: KindDomainMismatch}
}

func DivideByZero() *MechError {
	return &MechError{Kind: KindDivideByZero}
}

func MissingBlock(id uint64) *MechError {
	return &MechError{Kind: KindMissingBlock, BlockID: id}
}

func BlockDisabled(id uint64) *MechError {
	return &MechError{Kind: KindBlockDisabled, BlockID: id}
}

func TooManyInputArguments(given, expected int) *MechError {
	return &MechError{Kind: KindTooManyInputArguments, Given: given, Expected: expected}
}

func UnhandledTableShape(shape string) *MechError {
	return &MechError{Kind: KindUnhandledTableShape, ShapeName: shape}
}

func UnknownFunctionArgument(hash uint64) *MechError {
	return &MechError{Kind: KindUnknownFunctionArgument, Hash: hash}
}
