// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides retry and backoff helpers shared by the
// outbound-call paths.
package httputil

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// maxBackoff caps a single backoff wait.
const maxBackoff = 30 * time.Second

const defaultMaxAttempts = 3

// Retry runs fn up to maxAttempts times, sleeping between attempts with
// exponential backoff plus jitter. A nil return from fn stops
// immediately, as does any error for which retryable reports false.
// When maxAttempts is 0 the default (3) is used. If the context expires
// during a backoff wait, the last error from fn is returned.
func Retry(ctx context.Context, maxAttempts int, retryable func(error) bool, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(Backoff(attempt)):
		}
	}
	return lastErr
}

// Backoff returns the wait before retry number attempt (0-based):
// base×2^attempt plus up to 50% jitter, capped at 30s.
func Backoff(attempt int) time.Duration {
	d := time.Duration(float64(RetryBaseDelay) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}
