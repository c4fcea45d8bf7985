package ratelimit

import (
	"context"
	"time"
)

// Store tracks request counts per client identity in fixed time windows.
type Store interface {
	// Incr records one request for the given key and returns the resulting
	// count within the key's current window, together with the time remaining
	// until that window resets. If the key's previous window has expired, the
	// window is reset before the increment is applied.
	//
	// The reset-then-increment sequence is atomic per key: two concurrent
	// calls for the same key can never both observe the pre-increment count.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)

	// Close releases any resources held by the store.
	Close() error
}
