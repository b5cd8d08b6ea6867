package buddy

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned by Allocate when no free list at or above
// the requested size has a block to offer.
var ErrOutOfMemory = errors.New("buddy: out of memory")

// ErrTooLarge is returned by Allocate when the request exceeds the
// largest size class the heap manages.
var ErrTooLarge = errors.New("buddy: request exceeds heap capacity")

// ErrInvalidAddress is returned by Free when p does not lie within the
// managed range or is not leaf-size aligned.
var ErrInvalidAddress = errors.New("buddy: address out of range or misaligned")

// ErrDoubleFree is returned by Free, in strict mode, when p's block is
// already marked free.
var ErrDoubleFree = errors.New("buddy: double free")

// IntegrityError reports a reconciliation failure during
// initialization: the bytes accounted for by the reservation and
// free-list bookkeeping did not match the heap's actual size. It
// indicates a bug in the allocator itself, not a misuse by a caller.
// NewHeap does not return it: init reports a failed check through
// diag.Logger.Fatal, which panics.
type IntegrityError struct {
	Want uint32
	Got  uint32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("buddy: integrity check failed: want %d free bytes, computed %d", e.Want, e.Got)
}
