package buddy

// A thin adapter between the per-level Sz_info table and
// internal/list, kept separate so the free list can be treated as its
// own collaborator rather than inlined bitmap-adjacent logic.

func (h *Heap) pushFree(k int, addr uint32) {
	h.sizes[k].free.Push(addr)
}

func (h *Heap) popFree(k int) uint32 {
	return h.sizes[k].free.Pop()
}

func (h *Heap) freeEmpty(k int) bool {
	return h.sizes[k].free.Empty()
}

func (h *Heap) removeFree(k int, addr uint32) {
	h.sizes[k].free.Remove(addr)
}
