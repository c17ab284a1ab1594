package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlinks/internal/ratelimit"
)

// pruneEvery is how many records pass between sweeps of elapsed windows.
const pruneEvery = 1024

type fixedWindow struct {
	opened time.Time
	length time.Duration
	count  int64
}

func (w *fixedWindow) elapsed(now time.Time) bool {
	return now.Sub(w.opened) >= w.length
}

// RateLimitMemoryStore is a process-local ratelimit.Store for tests and single-instance runs.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	records int
	now     func() time.Time
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// WithClock overrides the store's time source.
func (s *RateLimitMemoryStore) WithClock(now func() time.Time) *RateLimitMemoryStore {
	s.now = now

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	s.records++
	if s.records%pruneEvery == 0 {
		s.prune(now)
	}

	w, ok := s.windows[key]
	if !ok || w.elapsed(now) {
		w = &fixedWindow{opened: now, length: window}
		s.windows[key] = w
	}

	w.count++

	return w.count, nil
}

// Len returns the number of open windows.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

func (s *RateLimitMemoryStore) prune(now time.Time) {
	for key, w := range s.windows {
		if w.elapsed(now) {
			delete(s.windows, key)
		}
	}
}
