package operator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelThreshold is the minimum iterator length (in columns) below
// which ElementWiseParallel falls back to the sequential path — not
// worth spinning up goroutines for a handful of columns. A runtime.Config
// may raise or lower it at startup.
var ParallelThreshold = 4

// ElementWiseParallel is ElementWise's data-parallel twin (§5:
// "parallelism, when enabled, is within a single vector operator ...
// and must finish before the operator returns"). Work is chunked by
// output column rather than by flat element index: each Column owns
// its own changed-bitset, so two goroutines never touch the same
// bitset word, unlike a flat element split which could race on a
// shared word. Falls back to ElementWise when there's nothing to gain
// from splitting.
func ElementWiseParallel(lhs, rhs, out *Iterator, fn BinaryScalarFn) error {
	if len(out.Columns) < ParallelThreshold {
		return ElementWise(lhs, rhs, out, fn)
	}

	g, _ := errgroup.WithContext(context.Background())
	for ci := range out.Columns {
		ci := ci
		g.Go(func() error {
			lc := columnIterator(lhs, ci)
			rc := columnIterator(rhs, ci)
			oc := &Iterator{Table: out.Table, Columns: []Column{out.Columns[ci]}}
			return ElementWise(lc, rc, oc, fn)
		})
	}
	return g.Wait()
}

// columnIterator slices a same-shaped sibling iterator down to the
// single column at index ci (clamped to its last column), or the whole
// thing when it has only one column.
func columnIterator(it *Iterator, ci int) *Iterator {
	if len(it.Columns) == 1 {
		return it
	}
	if ci >= len(it.Columns) {
		ci = len(it.Columns) - 1
	}
	return &Iterator{Table: it.Table, Columns: []Column{it.Columns[ci]}}
}
