package main

import (
	"context"
	"log/slog"

	"aigateway/internal/platform/config"
	"aigateway/internal/platform/postgres"
	"aigateway/internal/platform/redis"
	"aigateway/internal/ratelimit/metrics"
	"aigateway/internal/ratelimit/ports"
	"aigateway/internal/ratelimit/store/memory"
	pgstore "aigateway/internal/ratelimit/store/postgres"
	redisstore "aigateway/internal/ratelimit/store/redis"
	"aigateway/internal/ratelimit/store/resilient"
	"aigateway/pkg/platform/circuit"
)

// counterStores is everything the limiter needs plus the background jobs and
// connections that must be run or closed alongside it.
type counterStores struct {
	store    ports.CounterStore
	backend  string
	local    *memory.InMemoryStore
	postgres *pgstore.PostgresStore
	closers  []func()
}

func (s *counterStores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// sharedStore opens the configured shared backend. Redis wins over PostgreSQL;
// with neither configured it returns nil and the caller stays in-process.
func sharedStore(ctx context.Context, cfg config.Config, stores *counterStores) (ports.CounterStore, error) {
	switch {
	case cfg.Redis.URL != "":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, func() { _ = client.Close() })
		stores.backend = "redis"
		return redisstore.New(client.Client), nil

	case cfg.Postgres.URL != "":
		pool, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, pool.Close)
		store := pgstore.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		stores.backend = "postgres"
		stores.postgres = store
		return store, nil
	}
	return nil, nil
}

// buildCounterStores picks the counter backend. A shared backend is wrapped with
// a circuit breaker that falls back to process-local counters during outages.
func buildCounterStores(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*counterStores, error) {
	stores := &counterStores{local: memory.New(), backend: "memory"}

	shared, err := sharedStore(ctx, cfg, stores)
	if err != nil {
		stores.Close()
		return nil, err
	}
	if shared == nil {
		stores.store = stores.local
		return stores, nil
	}

	breaker := circuit.New("ratelimit-"+stores.backend,
		circuit.WithFailureThreshold(cfg.RateLimit.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.RateLimit.SuccessThreshold),
	)
	stores.store = resilient.New(shared, stores.local,
		resilient.WithBreaker(breaker),
		resilient.WithLogger(logger),
		resilient.WithObserver(m),
	)
	return stores, nil
}
