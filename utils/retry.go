package utils

import (
	"errors"
	"math/rand"
	"time"
)

// ErrVersionConflict signals an optimistic-concurrency failure: the row
// changed between read and write (the guarded UPDATE/DELETE matched no
// rows). Callers re-read the latest state and retry.
var ErrVersionConflict = errors.New("version conflict: document was modified concurrently")

// BackoffFunc returns the delay to wait before retry attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearJitterBackoff grows the delay linearly with the attempt number
// and adds up to one base unit of random jitter, so colliding writers
// do not retry in lock-step.
func LinearJitterBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt)*base + time.Duration(rand.Int63n(int64(base)))
	}
}

// WithRetry runs op up to maxAttempts times, retrying only on
// ErrVersionConflict and sleeping backoff(attempt) between attempts.
// Any other error aborts immediately. After exhausting attempts the
// last conflict error is returned.
func WithRetry(op func() error, maxAttempts int, backoff BackoffFunc) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if attempt < maxAttempts && backoff != nil {
			time.Sleep(backoff(attempt))
		}
	}
	return err
}
