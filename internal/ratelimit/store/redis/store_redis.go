package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"aigateway/internal/ratelimit/models"
	"aigateway/pkg/requestcontext"
)

var redisOpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "aigateway_ratelimit_redis_operation_duration_seconds",
	Help:    "Latency of Redis counter store operations",
	Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
}, []string{"operation"})

// admitScript trims the sorted-set log to the window, then adds the admission only
// when there is room. Scores are unix milliseconds. Returns {allowed, count, oldest}.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisStore implements CounterStore with a sorted-set sliding log. Each admission
// runs as one Lua script, so the check and the increment are atomic across every
// gateway replica sharing the Redis instance.
type RedisStore struct {
	client redis.UniversalClient
}

// New creates a Redis-backed counter store.
func New(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Admit records one admission for key if the trailing window has room.
func (s *RedisStore) Admit(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	start := time.Now()
	defer func() {
		redisOpLatency.WithLabelValues("admit").Observe(time.Since(start).Seconds())
	}()

	now := requestcontext.Now(ctx)
	nowMS := now.UnixMilli()
	member := strconv.FormatInt(nowMS, 10) + "-" + uuid.NewString()

	vals, err := admitScript.Run(ctx, s.client, []string{key},
		nowMS, window.Milliseconds(), limit, member,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis admit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("redis admit %s: unexpected script reply %v", key, vals)
	}

	resetAt := time.UnixMilli(vals[2]).Add(window)
	if vals[0] == 1 {
		return models.NewAllowed(limit, int(vals[1]), resetAt), nil
	}
	return models.NewRejected(limit, resetAt, now), nil
}

// Count returns the number of admissions for key inside the trailing window.
func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	start := time.Now()
	defer func() {
		redisOpLatency.WithLabelValues("count").Observe(time.Since(start).Seconds())
	}()

	cutoff := requestcontext.Now(ctx).Add(-window).UnixMilli()
	n, err := s.client.ZCount(ctx, key, "("+strconv.FormatInt(cutoff, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis count %s: %w", key, err)
	}
	return int(n), nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis reset %s: %w", key, err)
	}
	return nil
}
