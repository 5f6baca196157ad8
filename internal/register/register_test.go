package register

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashIsPureFunctionOfTriple(t *testing.T) {
	r1 := New(1, Index(2), Index(3))
	r2 := New(1, Index(2), Index(3))
	require.Equal(t, r1.Hash(), r2.Hash())

	r3 := New(1, Index(2), Index(4))
	require.NotEqual(t, r1.Hash(), r3.Hash())
}

func TestHashMasksTo56Bits(t *testing.T) {
	r := New(^uint64(0), Index(^uint64(0)), Index(^uint64(0)))
	h := r.Hash()
	require.Zero(t, h>>56, "hash must fit in 56 bits")
}

func TestCoversRuleAllAll(t *testing.T) {
	bimap := NewAliasBimap()
	watched := New(1, All(), All())
	concrete := New(1, Index(5), Index(2))
	require.True(t, Covers(watched, concrete, bimap))
}

func TestCoversRuleAliasIndexEquivalence(t *testing.T) {
	bimap := NewAliasBimap()
	bimap.Bind(2, 0xABCD)

	watched := New(1, All(), Alias(0xABCD))
	concrete := New(1, All(), Index(2))
	require.True(t, Covers(watched, concrete, bimap))

	// without the bind, they must not be equivalent
	bimap2 := NewAliasBimap()
	require.False(t, Covers(watched, concrete, bimap2))
}

func TestCoversRuleAllRowCoversEveryRow(t *testing.T) {
	bimap := NewAliasBimap()
	watched := New(1, All(), Index(3))
	concrete := New(1, Index(99), Index(3))
	require.True(t, Covers(watched, concrete, bimap))
}

func TestCoversNothingElseByConstruction(t *testing.T) {
	bimap := NewAliasBimap()
	watched := New(1, Index(1), Index(2))
	concrete := New(1, Index(1), Index(3))
	require.False(t, Covers(watched, concrete, bimap))
}

func TestCoversDifferentTablesNeverCover(t *testing.T) {
	bimap := NewAliasBimap()
	watched := New(1, All(), All())
	concrete := New(2, Index(1), Index(1))
	require.False(t, Covers(watched, concrete, bimap))
}
