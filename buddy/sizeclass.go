package buddy

import "github.com/nmxmxh/buddyheap/internal/list"

// levelInfo is Sz_info[k]: the free list, allocation bitmap and split
// bitmap for one size class. split is nil at level 0 — a leaf block is
// never itself the parent of a split, so there is nothing to record.
type levelInfo struct {
	free  *list.List
	alloc bitvec
	split bitvec // unused at k == 0
}

// buildSizeTable allocates Sz_info[0..maxLevel] for a heap whose
// backing buffer is mem. Free lists are threaded through mem itself;
// the bitmaps are ordinary Go-managed slices, not bump-allocated
// inside the managed range — ordinary Go heap bookkeeping for the
// allocator's own metadata.
func buildSizeTable(mem []byte, maxLevel int) []levelInfo {
	sizes := make([]levelInfo, maxLevel+1)
	for k := 0; k <= maxLevel; k++ {
		nblk := uint32(1) << uint(maxLevel-k)
		sizes[k] = levelInfo{
			free:  list.New(mem),
			alloc: newBitvec(nblk),
		}
		if k > 0 {
			sizes[k].split = newBitvec(nblk)
		}
	}
	return sizes
}

// firstk returns the smallest level k such that blockSize(k) can hold
// nbytes. A zero-byte request still receives a leaf-sized block — see
// the allocation policy documented on Heap.Allocate.
func (h *Heap) firstk(nbytes uint32) int {
	need := nbytes
	if need < h.leafSize {
		need = h.leafSize
	}
	for k := 0; k <= h.maxLevel; k++ {
		if h.blockSize(k) >= need {
			return k
		}
	}
	return h.maxLevel + 1 // signals "too large"; caller checks against maxLevel
}
