package buddy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T, size int) *Heap {
	t.Helper()
	mem := make([]byte, size)
	h, err := NewHeap(mem, Config{LeafSize: 64, Strict: true})
	require.NoError(t, err)
	return h
}

func TestNewHeap_ReconcilesFreeBytes(t *testing.T) {
	h := newTestHeap(t, 1024)

	stats, err := h.Stats()
	require.NoError(t, err)

	// One leaf (64 bytes) is reserved for the header; everything else
	// must be accounted for somewhere in the free lists.
	assert.Equal(t, uint32(1024-64), stats.FreeBytes)
	assert.Equal(t, uint32(64), stats.AllocatedBytes)
}

func TestAllocate_SequentialLeaves(t *testing.T) {
	h := newTestHeap(t, 1024)

	off1, err := h.Allocate(64)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), off1, "first usable leaf sits right after the header")

	off2, err := h.Allocate(64)
	require.NoError(t, err)
	assert.Equal(t, uint32(128), off2, "second leaf comes from splitting the next free block down")

	require.NoError(t, h.Free(off1))
	require.NoError(t, h.Free(off2))

	stats, err := h.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint32(64), stats.AllocatedBytes, "coalescing should restore the pre-allocation layout")
}

func TestAllocate_SplitAndCoalesce(t *testing.T) {
	h := newTestHeap(t, 1024)

	off1, err := h.Allocate(256)
	require.NoError(t, err)

	off2, err := h.Allocate(256)
	require.NoError(t, err)
	assert.NotEqual(t, off1, off2)

	require.NoError(t, h.Free(off1))
	require.NoError(t, h.Free(off2))

	// Re-allocating the same total size should succeed without ever
	// hitting out-of-memory, proving the two 256-byte blocks coalesced
	// back with whatever was already free around them.
	off3, err := h.Allocate(512)
	require.NoError(t, err)
	require.NoError(t, h.Free(off3))
}

func TestAllocate_OutOfMemory(t *testing.T) {
	h := newTestHeap(t, 128) // one leaf header, one leaf usable

	_, err := h.Allocate(64)
	require.NoError(t, err)

	_, err = h.Allocate(64)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestAllocate_TooLarge(t *testing.T) {
	h := newTestHeap(t, 1024)

	_, err := h.Allocate(1 << 20)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFree_InvalidAddress(t *testing.T) {
	h := newTestHeap(t, 1024)

	assert.ErrorIs(t, h.Free(3), ErrInvalidAddress, "misaligned address")
	assert.ErrorIs(t, h.Free(1<<20), ErrInvalidAddress, "out of range")
}

func TestFree_DoubleFreeStrict(t *testing.T) {
	h := newTestHeap(t, 1024)

	off, err := h.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, h.Free(off))

	err = h.Free(off)
	assert.ErrorIs(t, err, ErrDoubleFree)
}

func TestFree_DoubleFreeNonStrict(t *testing.T) {
	mem := make([]byte, 1024)
	h, err := NewHeap(mem, Config{LeafSize: 64, Strict: false})
	require.NoError(t, err)

	off, err := h.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, h.Free(off))

	assert.NoError(t, h.Free(off), "non-strict heaps log and ignore a repeated free")
}

func TestAllocateZeroed(t *testing.T) {
	h := newTestHeap(t, 1024)

	off, err := h.AllocateZeroed(64)
	require.NoError(t, err)
	for i := uint32(0); i < 64; i++ {
		assert.Equal(t, byte(0), h.mem[off+i])
	}
}

func TestAllocateFreeStress(t *testing.T) {
	h := newTestHeap(t, 4096)

	var live []uint32
	for i := 0; i < 200; i++ {
		switch {
		case len(live) == 0 || i%3 != 0:
			size := uint32(64 << uint(i%4))
			p, err := h.Allocate(size)
			if err == nil {
				live = append(live, p)
			}
		default:
			p := live[len(live)-1]
			live = live[:len(live)-1]
			require.NoError(t, h.Free(p))
		}
	}
	for _, p := range live {
		require.NoError(t, h.Free(p))
	}

	stats, err := h.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint32(64), stats.AllocatedBytes, "every leaf but the header should be free again")
}

// TestAllocateFreeStress_Orderings allocates every leaf the heap has to
// offer and frees them back in three distinct orders — reverse,
// insertion, and pseudo-random — asserting in each case that every
// block fully coalesces back to the heap's pristine post-init layout,
// not merely that the total free byte count matches.
func TestAllocateFreeStress_Orderings(t *testing.T) {
	const heapSize = 4096
	const leaf = 64

	orderings := map[string]func([]uint32){
		"reverse": func(ps []uint32) {
			for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
				ps[i], ps[j] = ps[j], ps[i]
			}
		},
		"insertion": func(ps []uint32) {},
		"pseudo-random": func(ps []uint32) {
			rand.New(rand.NewSource(1)).Shuffle(len(ps), func(i, j int) {
				ps[i], ps[j] = ps[j], ps[i]
			})
		},
	}

	for name, reorder := range orderings {
		t.Run(name, func(t *testing.T) {
			h := newTestHeap(t, heapSize)

			pristine, err := h.Stats()
			require.NoError(t, err)

			var live []uint32
			for {
				p, err := h.Allocate(leaf)
				if err != nil {
					break
				}
				live = append(live, p)
			}
			require.NotEmpty(t, live, "heap should have room for at least one leaf")

			reorder(live)
			for _, p := range live {
				require.NoError(t, h.Free(p))
			}

			stats, err := h.Stats()
			require.NoError(t, err)
			assert.Equal(t, pristine.FreeBytes, stats.FreeBytes, "full free byte count should return to its pristine value")
			assert.Equal(t, pristine.Levels, stats.Levels, "free-list occupancy per level, including the largest block, should return to its pristine layout")
		})
	}
}
