package memory

import (
	"context"
	"sync"
	"time"

	"aigateway/internal/ratelimit/models"
	"aigateway/pkg/requestcontext"
)

// InMemoryStore implements CounterStore with an exact in-process sliding log.
// Counters are not shared across processes; use the Redis or Postgres store when
// the gateway runs with more than one replica.
type InMemoryStore struct {
	mu   sync.Mutex
	logs map[string]*slidingLog
}

// slidingLog holds admission timestamps in ascending order.
type slidingLog struct {
	timestamps []time.Time
	window     time.Duration
}

// New creates a new in-memory counter store.
func New() *InMemoryStore {
	return &InMemoryStore{
		logs: make(map[string]*slidingLog),
	}
}

// Admit records one admission for key if the trailing window has room.
func (s *InMemoryStore) Admit(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.getOrCreateLog(key, window)
	sl.cleanup(now)

	if len(sl.timestamps) >= limit {
		var resetAt time.Time
		if len(sl.timestamps) > 0 {
			resetAt = sl.timestamps[0].Add(window)
		} else {
			resetAt = now.Add(window)
		}
		return models.NewRejected(limit, resetAt, now), nil
	}

	sl.timestamps = append(sl.timestamps, now)
	return models.NewAllowed(limit, len(sl.timestamps), sl.timestamps[0].Add(window)), nil
}

// Count returns the number of admissions for key inside the trailing window.
func (s *InMemoryStore) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.logs[key]
	if sl == nil {
		return 0, nil
	}
	cutoff := now.Add(-window)
	n := 0
	for _, ts := range sl.timestamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n, nil
}

// Reset clears the counter for a key.
func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
	return nil
}

// Sweep drops logs whose admissions have all left their window and returns how
// many keys were removed.
func (s *InMemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sl := range s.logs {
		sl.cleanup(now)
		if len(sl.timestamps) == 0 {
			delete(s.logs, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired logs every interval until ctx is cancelled.
func (s *InMemoryStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Len returns the number of tracked keys.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// cleanup removes timestamps that have left the window.
func (sl *slidingLog) cleanup(now time.Time) {
	cutoff := now.Add(-sl.window)
	i := 0
	for ; i < len(sl.timestamps); i++ {
		if sl.timestamps[i].After(cutoff) {
			break
		}
	}
	sl.timestamps = sl.timestamps[i:]
}

// getOrCreateLog returns an existing log or creates a new one.
// Must be called while holding s.mu lock.
func (s *InMemoryStore) getOrCreateLog(key string, window time.Duration) *slidingLog {
	if sl := s.logs[key]; sl != nil {
		sl.window = window
		return sl
	}
	sl := &slidingLog{timestamps: []time.Time{}, window: window}
	s.logs[key] = sl
	return sl
}
