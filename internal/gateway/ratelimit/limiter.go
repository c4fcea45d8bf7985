package ratelimit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Defaults applied when the corresponding Config fields are zero.
const (
	DefaultLimit  = 300
	DefaultWindow = 60 * time.Second
)

// Config holds the limiter's tunables.
type Config struct {
	// Limit is the number of requests a client may make within one window.
	Limit int64
	// Window is the fixed window duration.
	Window time.Duration
	// ExemptPaths lists path substrings that bypass limiting entirely
	// (health checks, API docs, static assets).
	ExemptPaths []string
}

// Decision is the outcome of a single check-and-increment.
type Decision struct {
	Allowed bool
	// Count is the client's request count within the current window,
	// including this request.
	Count int64
	// RetryAfter is the time remaining until the window resets. Only
	// meaningful on rejection.
	RetryAfter time.Duration
}

// Limiter enforces a per-client fixed-window quota on top of a Store.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	exempt []string
	logger *slog.Logger
}

// New creates a Limiter. Zero Limit/Window fall back to the defaults
// (300 requests per 60 seconds).
func New(store Store, cfg Config, logger *slog.Logger) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:  store,
		limit:  cfg.Limit,
		window: cfg.Window,
		exempt: cfg.ExemptPaths,
		logger: logger,
	}
}

// Exempt reports whether the given request path bypasses rate limiting.
// Exemption is checked by substring before any counter state is touched.
func (l *Limiter) Exempt(path string) bool {
	for _, fragment := range l.exempt {
		if fragment != "" && strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

// Allow performs the check-and-increment for the given client identity.
// The increment is part of the same per-key atomic operation as the check,
// so two concurrent requests can never both slip under the quota. An
// increment, once applied, is never rolled back: a request abandoned
// mid-chain still counts against the quota.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	count, remaining, err := l.store.Incr(ctx, clientID, l.window)
	if err != nil {
		return Decision{Allowed: true}, err
	}

	if count > l.limit {
		return Decision{Allowed: false, Count: count, RetryAfter: remaining}, nil
	}
	return Decision{Allowed: true, Count: count}, nil
}

// Limit reports the configured per-window request limit.
func (l *Limiter) Limit() int64 { return l.limit }

// Window reports the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }
