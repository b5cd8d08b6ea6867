// Package guard wraps repeated allocation failures with a circuit
// breaker, so a goroutine hammering a starved heap fails fast instead
// of paying the full O(K) free-list scan on every retry.
package guard

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrAllocatorTripped is returned in place of the heap's own
// ErrOutOfMemory once the breaker has opened.
var ErrAllocatorTripped = errors.New("guard: allocator circuit open, not retrying")

// Allocator is the subset of buddy.Heap this package depends on,
// narrowed so tests can substitute a fake without pulling in the real
// allocator.
type Allocator interface {
	Allocate(nbytes uint32) (uint32, error)
}

// Breaker wraps an Allocator, opening after a run of consecutive
// allocation failures and short-circuiting further calls until a
// half-open trial allocation succeeds.
type Breaker struct {
	alloc Allocator
	cb    *gobreaker.CircuitBreaker
}

// New wraps alloc with a breaker that opens after consecutiveFailures
// allocation errors in a row (of any kind, not only ErrOutOfMemory)
// and stays open for cooldown before allowing a
// half-open trial.
func New(alloc Allocator, consecutiveFailures uint32, cooldown time.Duration) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "buddy-allocate",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	})
	return &Breaker{alloc: alloc, cb: cb}
}

// Allocate proxies to the wrapped Allocator's Allocate, through the
// breaker. A successful allocation re-arms the breaker.
func (b *Breaker) Allocate(nbytes uint32) (uint32, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.alloc.Allocate(nbytes)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return 0, ErrAllocatorTripped
		}
		return 0, err
	}
	return result.(uint32), nil
}
