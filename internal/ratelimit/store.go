package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for rate limit data storage.
type Store interface {
	// Record counts a request in the fixed window that is open for key and returns the count so far.
	// The first request opens the window; the counter resets once it elapses.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
