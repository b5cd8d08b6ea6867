// Package buddy implements a power-of-two buddy memory allocator over
// a caller-supplied byte slice. It carves the slice into blocks whose
// sizes are leafSize * 2^k, splitting on allocation and coalescing on
// free, and keeps all bookkeeping (free lists, allocation bitmaps,
// split bitmaps) either in ordinary Go-managed slices or, for the free
// lists, threaded through the managed bytes themselves.
//
// A Heap is addressed by an explicit handle rather than a package-wide
// global: every exported operation takes a *Heap receiver, so a
// program can run more than one independent heap and so tests don't
// share mutable package state.
package buddy

import (
	"github.com/nmxmxh/buddyheap/internal/diag"
	"github.com/nmxmxh/buddyheap/internal/doublefree"
	"github.com/nmxmxh/buddyheap/internal/spinlock"
)

// Config configures a Heap. NewHeap replaces a zero LeafSize with
// DefaultConfig's leaf size and a nil Logger with diag.Default("buddy");
// the zero value of Strict and RateLimit disables those features.
type Config struct {
	// LeafSize is the smallest block the heap will ever hand out. It
	// must be a power of two and at least 8 bytes (two uint32 words),
	// since free blocks carry list pointers in their first 8 bytes.
	LeafSize uint32

	// Strict makes Free return ErrDoubleFree when the allocation bitmap
	// shows the block is already free; without it the repeated free is
	// logged and ignored. A hit of the bloom-filter probe is only ever a
	// logged warning, and Free validates alignment and range either way.
	Strict bool

	// RateLimit throttles the double-free diagnostic warning so a
	// caller that repeatedly frees the same bad address can't flood
	// the log sink.
	RateLimit bool

	// Logger receives diagnostic output. Defaults to
	// diag.Default("buddy") when nil.
	Logger *diag.Logger
}

// DefaultConfig returns a Config with an 64-byte leaf size and strict
// validation enabled.
func DefaultConfig() Config {
	return Config{
		LeafSize: 64,
		Strict:   true,
	}
}

// Heap is a buddy allocator over a fixed backing buffer.
type Heap struct {
	mem      []byte
	base     uint32
	heapSize uint32
	leafSize uint32
	maxLevel int // K = nsizes - 1

	sizes []levelInfo

	lock   spinlock.Spinlock
	strict bool
	log    *diag.Logger
	rlog   *diag.RateLimitedLogger
	freed  *doublefree.Filter
}

// NewHeap constructs a Heap over mem. mem is carved into [base, end)
// where base is mem rounded up to a LeafSize boundary and end is the
// largest LeafSize-aligned address not exceeding len(mem); both
// boundary gaps are reserved and never handed out. See init.go for the
// reservation and integrity-check procedure.
func NewHeap(mem []byte, cfg Config) (*Heap, error) {
	if cfg.LeafSize == 0 {
		cfg.LeafSize = DefaultConfig().LeafSize
	}
	if cfg.LeafSize&(cfg.LeafSize-1) != 0 {
		return nil, diag.Wrap(ErrInvalidAddress, "buddy: LeafSize must be a power of two")
	}
	if cfg.LeafSize < 8 {
		return nil, diag.Wrap(ErrInvalidAddress, "buddy: LeafSize must be at least 8 bytes")
	}
	if cfg.Logger == nil {
		cfg.Logger = diag.Default("buddy")
	}

	h := &Heap{
		leafSize: cfg.LeafSize,
		strict:   cfg.Strict,
		log:      cfg.Logger,
		freed:    doublefree.New(1024, 0.01),
	}
	if cfg.RateLimit {
		rl, err := diag.NewRateLimitedLogger(cfg.Logger, 5, 20)
		if err != nil {
			return nil, err
		}
		h.rlog = rl
	}

	return h.init(mem)
}

// MustNewHeap is NewHeap but panics on error, for callers (tests,
// simple binaries) that have no recovery path of their own.
func MustNewHeap(mem []byte, cfg Config) *Heap {
	h, err := NewHeap(mem, cfg)
	if err != nil {
		panic(err)
	}
	return h
}
