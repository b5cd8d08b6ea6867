package diag

import (
	"time"

	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"
)

// RateLimitedLogger wraps a Logger so that a noisy caller (repeated
// OOM warnings, a double-free probe firing on every free) can't flood
// the print sink. Every call site is keyed independently, so a burst
// of double-free warnings never suppresses an unrelated fatal.
type RateLimitedLogger struct {
	log     *Logger
	limiter *limiter.TokenBucket
}

// NewRateLimitedLogger throttles log, allowing up to burst messages
// and then perSecond messages per second thereafter, per key.
func NewRateLimitedLogger(log *Logger, perSecond, burst int64) (*RateLimitedLogger, error) {
	tb, err := limiter.NewTokenBucket(
		limiter.Config{
			Rate:     perSecond,
			Duration: time.Second,
			Burst:    burst,
		},
		store.NewMemoryStore(time.Minute),
	)
	if err != nil {
		return nil, Wrap(err, "diag: construct rate limiter")
	}
	return &RateLimitedLogger{log: log, limiter: tb}, nil
}

// Warn logs at WARN under key, dropping the message if key is
// currently rate-limited.
func (r *RateLimitedLogger) Warn(key, msg string, fields ...Field) {
	if r.limiter.Allow(key) {
		r.log.Warn(msg, fields...)
	}
}
