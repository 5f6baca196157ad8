package block

import "github.com/mech-lang/core/internal/register"

// ContentHash computes a stable 56-bit hash over the ordered
// Debug-form of a transformation list, so identical blocks dedupe
// across loads (§4.6).
func ContentHash(plan []Transformation) uint64 {
	var s string
	for _, t := range plan {
		s += t.debugForm() + ";"
	}
	return register.HashString56(s)
}
