package buddy

// Allocate returns the address of a block at least nbytes long, or
// ErrOutOfMemory if no free list at or above the required size class
// has a block to offer, or ErrTooLarge if nbytes exceeds the largest
// size this heap manages.
//
// A request for zero bytes still receives a leaf-sized block rather
// than a sentinel or an error: firstk's minimum size class is the
// leaf, and there is no meaningful way to hand back "no memory" for a
// request that didn't ask for any.
func (h *Heap) Allocate(nbytes uint32) (uint32, error) {
	fk := h.firstk(nbytes)
	if fk > h.maxLevel {
		return 0, ErrTooLarge
	}

	h.lock.Acquire()
	defer h.lock.Release()

	k := fk
	for k <= h.maxLevel && h.freeEmpty(k) {
		k++
	}
	if k > h.maxLevel {
		return 0, ErrOutOfMemory
	}

	p := h.popFree(k)
	h.sizes[k].alloc.set(h.blkIndex(k, p))

	for k > fk {
		q := p + h.blockSize(k-1)
		h.sizes[k].split.set(h.blkIndex(k, p))
		h.sizes[k-1].alloc.set(h.blkIndex(k-1, p))
		h.pushFree(k-1, q)
		k--
	}

	return p, nil
}

// AllocateZeroed is Allocate followed by a zero-fill of the returned
// block, for callers that need a zeroed-memory guarantee without
// tracking the exact block size themselves.
func (h *Heap) AllocateZeroed(nbytes uint32) (uint32, error) {
	k := h.firstk(nbytes)
	p, err := h.Allocate(nbytes)
	if err != nil {
		return 0, err
	}
	zero(h.mem, p, h.blockSize(k))
	return p, nil
}
