package buddy

// LevelStats reports the free-list occupancy of a single size class.
type LevelStats struct {
	Level     int
	BlockSize uint32
	FreeCount int
}

// Stats is a snapshot of a Heap's occupancy, suitable for logging or
// for streaming out over the optional diagnostic server.
type Stats struct {
	HeapSize       uint32
	LeafSize       uint32
	FreeBytes      uint32
	AllocatedBytes uint32
	Levels         []LevelStats
}

// countLimit bounds the free-list walk in Stats against a corrupted
// list spinning forever.
const countLimit = 1 << 20

// Stats computes a point-in-time snapshot of the heap's occupancy. It
// takes the heap lock for the duration of the walk.
func (h *Heap) Stats() (Stats, error) {
	h.lock.Acquire()
	defer h.lock.Release()

	s := Stats{
		HeapSize: h.heapSize,
		LeafSize: h.leafSize,
		Levels:   make([]LevelStats, len(h.sizes)),
	}

	for k := range h.sizes {
		n, err := h.sizes[k].free.Count(countLimit)
		if err != nil {
			return Stats{}, err
		}
		bs := h.blockSize(k)
		s.Levels[k] = LevelStats{Level: k, BlockSize: bs, FreeCount: n}
		s.FreeBytes += bs * uint32(n)
	}
	s.AllocatedBytes = h.heapSize - s.FreeBytes
	return s, nil
}
