package buddy

import "github.com/bits-and-blooms/bitset"

// bitvec is the bit-vector primitive used by alloc[k] and split[k]: an
// O(1), no-bounds-checking get/set/clear/flip surface over a fixed
// number of bits. Backed by bitset.BitSet rather than a hand-rolled
// []byte — the library already gives Test/Set/Clear/Flip with the
// toggle semantics a pair-parity bit would need, and nothing here
// outperforms it by going bare-metal.
type bitvec struct {
	bits *bitset.BitSet
}

func newBitvec(n uint32) bitvec {
	return bitvec{bits: bitset.New(uint(n))}
}

func (b bitvec) get(i uint32) bool {
	return b.bits.Test(uint(i))
}

func (b bitvec) set(i uint32) {
	b.bits.Set(uint(i))
}

func (b bitvec) clear(i uint32) {
	b.bits.Clear(uint(i))
}

func (b bitvec) flip(i uint32) {
	b.bits.Flip(uint(i))
}
