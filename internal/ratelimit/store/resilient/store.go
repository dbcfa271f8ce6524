package resilient

import (
	"context"
	"log/slog"
	"time"

	"aigateway/internal/ratelimit/models"
	"aigateway/internal/ratelimit/ports"
	"aigateway/pkg/platform/circuit"
)

// StateObserver is notified when the breaker opens or closes.
type StateObserver interface {
	SetCircuitOpen(open bool)
}

// Store wraps a shared counter store with a circuit breaker and an in-process
// fallback. Any primary error is answered from the fallback so admission control
// keeps working during an outage; results served that way are marked Degraded.
// After consecutive failures the breaker opens; while open the primary is still
// probed on each call and the breaker closes again after consecutive successes.
type Store struct {
	primary  ports.CounterStore
	fallback ports.CounterStore
	breaker  *circuit.Breaker
	logger   *slog.Logger
	observer StateObserver
}

// Option configures the Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		if b != nil {
			s.breaker = b
		}
	}
}

func WithObserver(o StateObserver) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// New wraps primary with fallback.
func New(primary, fallback ports.CounterStore, opts ...Option) *Store {
	s := &Store{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("ratelimit-store"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit asks the primary store, falling back to the local store on failure or
// while the circuit is open.
func (s *Store) Admit(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := s.primary.Admit(ctx, key, limit, window)
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "rate limit store circuit opened, using in-memory fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
			s.notify(true)
		} else {
			s.logger.WarnContext(ctx, "rate limit store error, using in-memory fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		return s.admitFallback(ctx, key, limit, window)
	}

	usePrimary, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.logger.InfoContext(ctx, "rate limit store circuit closed, primary restored",
			"breaker", s.breaker.Name(),
		)
		s.notify(false)
	}
	if !usePrimary {
		// Still recovering: the fallback has the authoritative recent history.
		return s.admitFallback(ctx, key, limit, window)
	}
	return result, nil
}

// Count reads from the primary, or from the fallback while the circuit is open.
func (s *Store) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	if s.breaker.IsOpen() {
		return s.fallback.Count(ctx, key, window)
	}
	n, err := s.primary.Count(ctx, key, window)
	if err != nil {
		return s.fallback.Count(ctx, key, window)
	}
	return n, nil
}

// Reset clears the key in both stores.
func (s *Store) Reset(ctx context.Context, key string) error {
	if err := s.fallback.Reset(ctx, key); err != nil {
		return err
	}
	return s.primary.Reset(ctx, key)
}

// Degraded reports whether the breaker is currently open.
func (s *Store) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *Store) admitFallback(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := s.fallback.Admit(ctx, key, limit, window)
	if err != nil {
		return nil, err
	}
	result.Degraded = true
	return result, nil
}

func (s *Store) notify(open bool) {
	if s.observer != nil {
		s.observer.SetCircuitOpen(open)
	}
}
