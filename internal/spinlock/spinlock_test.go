package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinlock_MutualExclusion(t *testing.T) {
	var lock Spinlock
	var counter int
	var wg sync.WaitGroup

	const goroutines = 50
	const increments = 200

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				lock.Acquire()
				counter++
				lock.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*increments, counter)
}

func TestSpinlock_AcquireRelease(t *testing.T) {
	var lock Spinlock
	lock.Acquire()
	lock.Release()
	lock.Acquire()
	lock.Release()
}
