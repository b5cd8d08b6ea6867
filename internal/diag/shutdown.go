package diag

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Shutdown coordinates an ordered, timed-out shutdown of the optional
// diagnostic server: the websocket listener, the churn goroutine, and
// anything else registered. Adapted from the kernel's
// GracefulShutdown — same LIFO-ordered, timeout-bounded fan-out, with
// Logger swapped in place of the kernel's own logger type.
type Shutdown struct {
	mu      sync.Mutex
	fns     []func() error
	timeout time.Duration
	log     *Logger
}

// NewShutdown returns a shutdown coordinator that gives registered
// functions up to timeout to complete.
func NewShutdown(timeout time.Duration, log *Logger) *Shutdown {
	if log == nil {
		log = Default("shutdown")
	}
	return &Shutdown{timeout: timeout, log: log}
}

// Register adds fn to the set run on Run. Run starts the functions in
// reverse registration order but runs them concurrently, so no
// function waits for another to finish.
func (s *Shutdown) Register(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

// Run executes every registered function concurrently and waits for
// them all, or for ctx/the configured timeout, whichever comes first.
func (s *Shutdown) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("starting graceful shutdown", Int("components", len(s.fns)))

	shutdownCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	errs := make(chan error, len(s.fns))
	var wg sync.WaitGroup

	for i := len(s.fns) - 1; i >= 0; i-- {
		wg.Add(1)
		fn := s.fns[i]
		idx := i
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.log.Error("shutdown function failed", Int("index", idx), Err(err))
				errs <- err
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("graceful shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		s.log.Warn("graceful shutdown timed out")
		return errors.New("diag: shutdown timeout")
	}
}
