package ratelimit_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/phrazzld/edge-gateway/internal/gateway/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter builds a limiter on a fresh memory store driven by a mock
// clock. The janitor is effectively disabled by a very long sweep interval so
// tests control all state transitions.
func newTestLimiter(t *testing.T, limit int64, window time.Duration) (*ratelimit.Limiter, *clock.Mock) {
	t.Helper()

	mockClock := clock.NewMock()
	store := ratelimit.NewMemoryStore(mockClock,
		ratelimit.WithSweepInterval(24*time.Hour),
		ratelimit.WithMaxIdle(48*time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	limiter := ratelimit.New(store, ratelimit.Config{Limit: limit, Window: window}, slog.Default())
	return limiter, mockClock
}

func TestAllowQuotaInvariant(t *testing.T) {
	t.Parallel()

	const limit = 5
	limiter, _ := newTestLimiter(t, limit, time.Minute)
	ctx := context.Background()

	// All requests up to the limit are allowed.
	for i := 1; i <= limit; i++ {
		decision, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be allowed", i)
		assert.Equal(t, int64(i), decision.Count)
	}

	// Request limit+1 within the same window is rejected.
	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(limit+1), decision.Count)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}

func TestAllowWindowReset(t *testing.T) {
	t.Parallel()

	const limit = 3
	limiter, mockClock := newTestLimiter(t, limit, time.Minute)
	ctx := context.Background()

	// Exhaust the quota.
	for i := 0; i < limit; i++ {
		_, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
	}
	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// Just past the window boundary the client gets a fresh window.
	mockClock.Add(time.Minute + time.Millisecond)

	decision, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.Count, "reset window starts counting from one")
}

func TestAllowPerClientIsolation(t *testing.T) {
	t.Parallel()

	const limit = 4
	limiter, _ := newTestLimiter(t, limit, time.Minute)
	ctx := context.Background()

	// Interleave: client A exhausts its quota while client B stays under.
	for i := 0; i < limit*2; i++ {
		decisionA, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		if i < limit {
			assert.True(t, decisionA.Allowed)
		} else {
			assert.False(t, decisionA.Allowed)
		}

		if i%4 == 0 {
			decisionB, err := limiter.Allow(ctx, "client-b")
			require.NoError(t, err)
			assert.True(t, decisionB.Allowed,
				"client B must never be rejected because of client A's usage")
		}
	}
}

func TestAllowConcurrentSameClient(t *testing.T) {
	t.Parallel()

	const (
		limit    = 100
		attempts = 250
	)
	limiter, _ := newTestLimiter(t, limit, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Allow(ctx, "client-a")
			assert.NoError(t, err)
			if decision.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// The check and increment are one atomic operation, so exactly the quota
	// is admitted no matter how the goroutines interleave.
	assert.Equal(t, limit, allowed)
}

func TestExempt(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(clock.NewMock(),
		ratelimit.WithSweepInterval(24*time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	limiter := ratelimit.New(store, ratelimit.Config{
		Limit:       10,
		Window:      time.Minute,
		ExemptPaths: []string{"/actuator/health", "/swagger", "/static/"},
	}, slog.Default())

	tests := []struct {
		path   string
		exempt bool
	}{
		{path: "/actuator/health", exempt: true},
		{path: "/api/v1/actuator/health", exempt: true},
		{path: "/swagger/index.html", exempt: true},
		{path: "/static/logo.png", exempt: true},
		{path: "/api/orders", exempt: false},
		{path: "/", exempt: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.exempt, limiter.Exempt(tt.path), "path %s", tt.path)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(clock.NewMock(),
		ratelimit.WithSweepInterval(24*time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	limiter := ratelimit.New(store, ratelimit.Config{}, nil)

	assert.Equal(t, int64(ratelimit.DefaultLimit), limiter.Limit())
	assert.Equal(t, ratelimit.DefaultWindow, limiter.Window())
}
