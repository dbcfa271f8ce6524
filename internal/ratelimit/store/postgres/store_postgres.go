package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"aigateway/internal/ratelimit/models"
	ptx "aigateway/pkg/platform/tx"
	"aigateway/pkg/requestcontext"
)

// Schema creates the admission log table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS ai_usage_events (
	id          BIGSERIAL PRIMARY KEY,
	key         TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ai_usage_events_key_occurred_at_idx
	ON ai_usage_events (key, occurred_at);
`

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements CounterStore as a sliding log of admission rows.
// Each admission runs in a transaction holding an advisory lock on the key, so
// concurrent replicas serialize per caller without locking unrelated keys.
type PostgresStore struct {
	db DB
}

// New constructs a PostgreSQL-backed counter store.
func New(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the admission table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create ai_usage_events: %w", err)
	}
	return nil
}

// Admit records one admission for key if the trailing window has room.
func (s *PostgresStore) Admit(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx).UTC()
	cutoff := now.Add(-window)

	var result *models.RateLimitResult
	err := ptx.Run(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock counter %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM ai_usage_events WHERE key = $1 AND occurred_at <= $2`, key, cutoff); err != nil {
			return fmt.Errorf("trim counter %s: %w", key, err)
		}

		var count int
		var oldest *time.Time
		err := tx.QueryRow(ctx,
			`SELECT count(*), min(occurred_at) FROM ai_usage_events WHERE key = $1`, key,
		).Scan(&count, &oldest)
		if err != nil {
			return fmt.Errorf("count counter %s: %w", key, err)
		}

		if count >= limit {
			resetAt := now.Add(window)
			if oldest != nil {
				resetAt = oldest.Add(window)
			}
			result = models.NewRejected(limit, resetAt, now)
			return nil
		}

		if _, err := tx.Exec(ctx, `INSERT INTO ai_usage_events (key, occurred_at) VALUES ($1, $2)`, key, now); err != nil {
			return fmt.Errorf("record admission %s: %w", key, err)
		}
		first := now
		if oldest != nil {
			first = *oldest
		}
		result = models.NewAllowed(limit, count+1, first.Add(window))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of admissions for key inside the trailing window.
func (s *PostgresStore) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	cutoff := requestcontext.Now(ctx).UTC().Add(-window)
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM ai_usage_events WHERE key = $1 AND occurred_at > $2`, key, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count counter %s: %w", key, err)
	}
	return count, nil
}

// Reset clears the counter for a key.
func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM ai_usage_events WHERE key = $1`, key); err != nil {
		return fmt.Errorf("reset counter %s: %w", key, err)
	}
	return nil
}

// Purge removes admissions older than maxWindow across all keys.
func (s *PostgresStore) Purge(ctx context.Context, maxWindow time.Duration) (int64, error) {
	cutoff := requestcontext.Now(ctx).UTC().Add(-maxWindow)
	tag, err := s.db.Exec(ctx, `DELETE FROM ai_usage_events WHERE occurred_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
