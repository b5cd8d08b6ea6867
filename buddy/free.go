package buddy

import "github.com/nmxmxh/buddyheap/internal/diag"

// size recovers the size-class level of an allocated block given only
// its address, by walking up through the split bitmaps to find the
// first ancestor that was never split. Freeing an address that was
// never returned by Allocate is undefined behavior and size makes no
// attempt to detect it; in particular, an address whose top-level
// block was allocated whole without ever being split recovers as
// level 0, since no split bit anywhere in its ancestry was ever set.
func (h *Heap) size(p uint32) int {
	for k := 0; k < h.maxLevel; k++ {
		if h.sizes[k+1].split.get(h.blkIndex(k+1, p)) {
			return k
		}
	}
	return 0
}

// Free returns p's block to its size class, coalescing with its buddy
// at each level as long as the buddy is also free.
//
// p must be an address previously returned by Allocate on this Heap
// and not already freed; violating this is undefined behavior in
// production builds. Free always rejects a misaligned or out-of-range
// address with ErrInvalidAddress. With Config.Strict set, a double free
// detected by the allocation bitmap returns ErrDoubleFree; without it
// the repeated free is logged and ignored.
func (h *Heap) Free(p uint32) error {
	if p < h.base || p >= h.base+h.heapSize || (p-h.base)%h.leafSize != 0 {
		return ErrInvalidAddress
	}

	h.lock.Acquire()
	defer h.lock.Release()

	if h.freed.Seen(p) {
		h.warn("possible double free", diag.Uint32("addr", p))
	}

	k := h.size(p)
	bi := h.blkIndex(k, p)

	if !h.sizes[k].alloc.get(bi) {
		if h.strict {
			return ErrDoubleFree
		}
		h.warn("double free ignored (non-strict heap)", diag.Uint32("addr", p))
		return nil
	}

	for k < h.maxLevel {
		bi = h.blkIndex(k, p)
		buddy := buddyOf(bi)
		h.sizes[k].alloc.clear(bi)

		if h.sizes[k].alloc.get(buddy) {
			break
		}

		buddyAddr := h.addr(k, buddy)
		h.removeFree(k, buddyAddr)
		if buddy%2 == 0 {
			p = buddyAddr
		}
		h.sizes[k+1].split.clear(h.blkIndex(k+1, p))
		k++
	}

	h.pushFree(k, p)
	h.freed.Record(p)
	return nil
}

func (h *Heap) warn(msg string, fields ...diag.Field) {
	if h.rlog != nil {
		h.rlog.Warn(msg, msg, fields...)
		return
	}
	h.log.Warn(msg, fields...)
}
