package buddy

// Component D: index/address mapping. Pure arithmetic over h.base; the
// caller (alloc.go, free.go, init.go) is responsible for holding the
// lock and for only passing addresses inside [base, base+heapSize).

// blockSize returns BLK_SIZE(k) = leafSize * 2^k.
func (h *Heap) blockSize(k int) uint32 {
	return h.leafSize << uint(k)
}

// numBlocks returns NBLK(k) = 2^(K-k), the number of blocks at level k.
func (h *Heap) numBlocks(k int) uint32 {
	return uint32(1) << uint(h.maxLevel-k)
}

// blkIndex returns the index of the block at level k containing p.
func (h *Heap) blkIndex(k int, p uint32) uint32 {
	return (p - h.base) / h.blockSize(k)
}

// blkIndexNext returns the smallest block index at level k whose base
// address is >= p (a ceiling division).
func (h *Heap) blkIndexNext(k int, p uint32) uint32 {
	bs := h.blockSize(k)
	return (p - h.base + bs - 1) / bs
}

// addr returns the base address of block i at level k.
func (h *Heap) addr(k int, i uint32) uint32 {
	return h.base + i*h.blockSize(k)
}

// buddyOf returns the index of i's sibling at the same level.
func buddyOf(i uint32) uint32 {
	return i ^ 1
}
