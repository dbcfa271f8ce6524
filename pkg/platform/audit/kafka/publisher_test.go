package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "aigateway/pkg/platform/audit"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) published() []*kgo.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*kgo.Record{}, f.records...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherDeliversEvents(t *testing.T) {
	producer := &fakeProducer{}
	pub := New(producer, "ai.audit", WithLogger(quietLogger()), WithFlushInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, audit.Event{
		Action:    audit.EventRateLimitExceeded,
		Subject:   "user:u-1",
		RequestID: "req-12345678",
	}))

	require.Eventually(t, func() bool { return len(producer.published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	rec := producer.published()[0]
	assert.Equal(t, "ai.audit", rec.Topic)
	assert.Equal(t, "user:u-1", string(rec.Key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, audit.EventRateLimitExceeded, decoded.Action)
	assert.Equal(t, audit.CategorySecurity, decoded.Category)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestPublisherDrainsOnShutdown(t *testing.T) {
	producer := &fakeProducer{}
	pub := New(producer, "ai.audit", WithLogger(quietLogger()), WithFlushInterval(time.Hour), WithBatchSize(3))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.EventGenerationCompleted}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, pub.Run(ctx))

	assert.Len(t, producer.published(), 10, "all buffered events are flushed on shutdown")
}

func TestPublisherDropsOldestWhenFull(t *testing.T) {
	producer := &fakeProducer{}
	pub := New(producer, "ai.audit", WithLogger(quietLogger()), WithBufferSize(2))

	for _, gen := range []string{"quiz", "lesson", "poll"} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.EventGenerationCompleted, Generator: gen}))
	}
	assert.Equal(t, int64(1), pub.Dropped())

	batch := pub.buffer.dequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "lesson", batch[0].Generator)
	assert.Equal(t, "poll", batch[1].Generator)
}

func TestPublisherSwallowsBrokerErrors(t *testing.T) {
	producer := &fakeProducer{err: errors.New("leader not available")}
	pub := New(producer, "ai.audit", WithLogger(quietLogger()))

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.EventGenerationFailed}))
	pub.flush(context.Background())

	assert.Empty(t, producer.published())
	assert.Equal(t, 0, pub.buffer.len())
}
