package buddy

import (
	"encoding/binary"

	"github.com/nmxmxh/buddyheap/internal/diag"
)

// headerMagic tags the reserved leaf at the start of every heap. It is
// not load-bearing for correctness — nothing ever reads it back — but
// it gives a memory dump something recognizable to grep for, the same
// convention superblocks in real filesystems and allocators use.
const headerMagic = 0xB0DD0000

// init carves mem into [base, base+heapSize), reserves a one-leaf
// header at the front and whatever trailing slack doesn't fill a full
// leaf (plus, if len(mem) isn't itself a power-of-two multiple of
// leafSize, the padding up to the next power of two) at the back, then
// reconciles the resulting free-list bookkeeping against the known
// usable byte count. A mismatch means a bug in this package, not a
// caller error, and is fatal.
func (h *Heap) init(mem []byte) (*Heap, error) {
	headerSize := h.leafSize
	if uint32(len(mem)) < 2*h.leafSize {
		return nil, diag.Wrap(ErrInvalidAddress, "buddy: backing buffer too small for LeafSize")
	}

	h.mem = mem
	h.base = 0

	realEnd := (uint32(len(mem)) / h.leafSize) * h.leafSize
	usableStart := h.base + headerSize
	usable := realEnd - usableStart

	span := realEnd - h.base
	blocksNeeded := span / h.leafSize
	k := 0
	for (uint32(1) << uint(k)) < blocksNeeded {
		k++
	}
	h.maxLevel = k
	h.heapSize = h.leafSize << uint(k)
	h.sizes = buildSizeTable(mem, h.maxLevel)

	binary.LittleEndian.PutUint32(mem[0:4], headerMagic)
	binary.LittleEndian.PutUint32(mem[4:8], h.heapSize)

	virtualEnd := h.base + h.heapSize

	prefixFree := h.mark(h.base, usableStart, true)
	suffixFree := h.mark(realEnd, virtualEnd, false)
	topFree := h.reconcileTop()

	totalFree := prefixFree + suffixFree + topFree
	if totalFree != usable {
		h.log.Fatal("buddy: integrity check failed",
			diag.Uint32("want", usable),
			diag.Uint32("got", totalFree),
		)
	}

	return h, nil
}

// mark reserves [start, stop) — both leaf-aligned — across every level
// below the top, setting alloc/split bits for the blocks the range
// touches and shedding the adjacent free buddy onto its own free list
// wherever the range's boundary lands on an odd block index. isLeft
// selects which side of the range is the "inside" of the reservation:
// true for the prefix reservation growing rightward from base, false
// for the suffix reservation growing leftward from the virtual end.
//
// Shedding is skipped for k >= maxLevel-1: at that height the two
// halves of the heap might each be touched by a different mark call
// (one for the prefix, one for the suffix), and shedding one before
// the other has run would hand out a block that the other call is
// about to reserve a piece of. reconcileTop resolves what's left once
// both calls have completed.
func (h *Heap) mark(start, stop uint32, isLeft bool) uint32 {
	var freed uint32
	for k := 0; k < h.maxLevel; k++ {
		bi := h.blkIndex(k, start)
		bj := h.blkIndexNext(k, stop)

		if k < h.maxLevel-1 {
			if isLeft && bj%2 == 1 {
				h.pushFree(k, h.addr(k, bj))
				freed += h.blockSize(k)
			} else if !isLeft && bi%2 == 1 {
				h.pushFree(k, h.addr(k, bi-1))
				freed += h.blockSize(k)
			}
		}

		for i := bi; i < bj; i++ {
			if k > 0 {
				h.sizes[k].split.set(i)
			}
			h.sizes[k].alloc.set(i)
		}
	}
	return freed
}

// reconcileTop resolves the two top levels that mark deliberately
// leaves alone. Exactly one of three things is true once both mark
// calls have run: neither half of the heap was touched (no prefix and
// no suffix reservation at all — only possible if the header were
// zero-sized, which it never is, so this case is not reached), one half
// was touched and the other is entirely free, or both halves were
// touched and there is nothing left to add. Whenever a half was
// touched, the top block is marked split (and allocated) so that size
// can recover the level of a block taken from level maxLevel-1.
func (h *Heap) reconcileTop() uint32 {
	top := h.maxLevel - 1
	// alloc, not split: bulk marking sets both together at every level
	// mark touches, but split[0] doesn't exist (a leaf is never split),
	// so alloc is the one indicator that works uniformly down to top == 0.
	leftTouched := h.sizes[top].alloc.get(0)
	rightTouched := h.sizes[top].alloc.get(1)

	if leftTouched || rightTouched {
		h.sizes[h.maxLevel].split.set(0)
		h.sizes[h.maxLevel].alloc.set(0)
	}

	switch {
	case !leftTouched && !rightTouched:
		h.pushFree(h.maxLevel, h.addr(h.maxLevel, 0))
		return h.heapSize
	case !leftTouched:
		h.pushFree(top, h.addr(top, 0))
		return h.blockSize(top)
	case !rightTouched:
		h.pushFree(top, h.addr(top, 1))
		return h.blockSize(top)
	default:
		return 0
	}
}
