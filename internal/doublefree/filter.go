// Package doublefree provides a probabilistic early-warning signal for
// repeated frees of the same address. It is not the authoritative
// double-free check (that lives in buddy.Heap.Free, which consults the
// exact allocation bitmap); it is a cheap, independent second opinion
// surfaced to the diagnostic sink.
package doublefree

import "github.com/bits-and-blooms/bloom/v3"

// Filter tracks recently-freed addresses. A positive from Seen can be
// a false positive (bloom filters never have false negatives for
// membership, but do have false positives); a negative is certain.
type Filter struct {
	bits *bloom.BloomFilter
}

// New returns a filter sized for expectedFrees entries at the given
// false-positive rate.
func New(expectedFrees uint, falsePositiveRate float64) *Filter {
	return &Filter{bits: bloom.NewWithEstimates(expectedFrees, falsePositiveRate)}
}

// Seen reports whether addr was probably freed before.
func (f *Filter) Seen(addr uint32) bool {
	return f.bits.Test(encode(addr))
}

// Record marks addr as freed.
func (f *Filter) Record(addr uint32) {
	f.bits.Add(encode(addr))
}

func encode(addr uint32) []byte {
	return []byte{byte(addr), byte(addr >> 8), byte(addr >> 16), byte(addr >> 24)}
}
