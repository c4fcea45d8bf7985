package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// shardCount is the number of independent map shards. Requests from
// unrelated clients land on different shards most of the time, so they never
// contend on the same lock.
const shardCount = 64

// Default janitor settings. An entry that has not been touched for maxIdle
// can no longer influence any rate-limit decision and is only occupying
// memory, so the janitor drops it.
const (
	defaultSweepInterval = 5 * time.Minute
	defaultMaxIdle       = 15 * time.Minute
)

// windowEntry is the mutable per-client state: the request count within the
// current window and the instant the window started. It is mutated only
// while holding its own mutex, never under a shard or store-wide lock.
type windowEntry struct {
	mu          sync.Mutex
	count       int64
	windowStart time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*windowEntry
}

// MemoryStore is an in-process Store backed by a sharded map with a
// background janitor that evicts stale client entries. A fresh instance per
// test gives fully isolated limiter state.
type MemoryStore struct {
	shards        [shardCount]*shard
	clk           clock.Clock
	sweepInterval time.Duration
	maxIdle       time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// MemoryStoreOption customizes a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often the janitor scans for stale entries.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.sweepInterval = d }
}

// WithMaxIdle sets how long an untouched entry survives before eviction.
// It should be comfortably larger than the rate-limit window.
func WithMaxIdle(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.maxIdle = d }
}

// NewMemoryStore creates a MemoryStore using the given clock. Production
// callers pass clock.New(); tests pass a mock clock to drive window expiry
// deterministically.
func NewMemoryStore(clk clock.Clock, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		clk:           clk,
		sweepInterval: defaultSweepInterval,
		maxIdle:       defaultMaxIdle,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*windowEntry)}
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.janitor()

	return s
}

// Incr implements Store.
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	sh := s.shards[shardIndex(key)]

	// Fast path: the entry already exists and only a read lock on the shard
	// is needed to find it.
	sh.mu.RLock()
	entry := sh.entries[key]
	sh.mu.RUnlock()

	if entry == nil {
		sh.mu.Lock()
		// Another request for the same key may have created the entry
		// between the two lock acquisitions.
		entry = sh.entries[key]
		if entry == nil {
			entry = &windowEntry{windowStart: s.clk.Now()}
			sh.entries[key] = entry
		}
		sh.mu.Unlock()
	}

	now := s.clk.Now()

	entry.mu.Lock()
	elapsed := now.Sub(entry.windowStart)
	if elapsed > window {
		entry.count = 0
		entry.windowStart = now
		elapsed = 0
	}
	entry.count++
	count := entry.count
	entry.mu.Unlock()

	remaining := window - elapsed
	return count, remaining, nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

// Len reports the total number of tracked client entries.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// janitor periodically evicts entries whose window has been idle longer than
// maxIdle. Without it the per-client table grows without bound as client
// identities churn.
func (s *MemoryStore) janitor() {
	defer close(s.done)

	ticker := s.clk.Ticker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	cutoff := s.clk.Now().Add(-s.maxIdle)

	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, entry := range sh.entries {
			entry.mu.Lock()
			stale := entry.windowStart.Before(cutoff)
			entry.mu.Unlock()
			if stale {
				delete(sh.entries, key)
			}
		}
		sh.mu.Unlock()
	}
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
