package register

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const hash56Mask = (uint64(1) << 56) - 1

// Hash56 truncates a stable 64-bit hash to the spec's wire-stable
// 56-bit identifier width (§4.5, §6). The 64-bit hash itself is
// xxhash — the pack's (AKJUS-bsc-erigon) ecosystem equivalent of the
// original Rust runtime's seahash; both are "feed bytes, get a stable
// 64-bit integer" hashers used purely as identity, never for
// cryptographic purposes.
func Hash56(b []byte) uint64 {
	return xxhash.Sum64(b) & hash56Mask
}

// HashString56 hashes an identifier string the way the runtime hashes
// every alias and function name (§6): the wordlist rendering the hash
// back to a name is a debugging aid only, never on any wire.
func HashString56(s string) uint64 {
	return Hash56([]byte(s))
}

// Hash computes the register's wire-stable 56-bit key (§4.5):
// little-endian table_id, row.Unwrap(), col.Unwrap(), concatenated and
// hashed. The hash is a pure function of the triple and does not
// depend on any AliasBimap — two registers that are equivalent via the
// bimap (e.g. Index(i) and its bound Alias) still hash differently;
// equivalence is decided by Covers, not by Hash.
func (r Register) Hash() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.TableID)
	binary.LittleEndian.PutUint64(buf[8:16], r.Row.Unwrap())
	binary.LittleEndian.PutUint64(buf[16:24], r.Col.Unwrap())
	return Hash56(buf[:])
}
