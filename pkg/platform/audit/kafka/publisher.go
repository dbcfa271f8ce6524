// Package kafka publishes audit events to a Kafka topic. Events are buffered in
// memory and written by a background loop so request handlers never wait on the
// broker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "aigateway/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client used by the publisher.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher buffers audit events and writes them to Kafka in batches.
type Publisher struct {
	producer      Producer
	topic         string
	buffer        *ringBuffer
	wake          chan struct{}
	batchSize     int
	flushInterval time.Duration
	drainTimeout  time.Duration
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBufferSize bounds the number of events held while the broker is slow.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buffer = newRingBuffer(n)
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New creates a publisher writing to topic. Call Run to start delivery.
func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer:      producer,
		topic:         topic,
		buffer:        newRingBuffer(0),
		wake:          make(chan struct{}, 1),
		batchSize:     100,
		flushInterval: time.Second,
		drainTimeout:  5 * time.Second,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewClient builds a franz-go client for the audit topic.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.ClientID("aigateway-audit"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Emit enqueues the event. It never blocks on the broker; when the buffer is full
// the oldest event is dropped.
func (p *Publisher) Emit(_ context.Context, event audit.Event) error {
	if p.buffer.enqueue(event.Normalize(p.now())) {
		p.metrics.incDropped()
	}
	p.metrics.setBuffered(p.buffer.len())
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run delivers buffered events until ctx is cancelled, then drains what is left.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.drainTimeout)
			p.flush(drainCtx)
			cancel()
			return nil
		case <-p.wake:
			p.flush(ctx)
		case <-ticker.C:
			p.flush(ctx)
		}
	}
}

func (p *Publisher) flush(ctx context.Context) {
	for {
		batch := p.buffer.dequeueBatch(p.batchSize)
		if len(batch) == 0 {
			p.metrics.setBuffered(0)
			return
		}
		records := make([]*kgo.Record, 0, len(batch))
		for _, event := range batch {
			value, err := json.Marshal(event)
			if err != nil {
				p.logger.Error("failed to encode audit event", "error", err, "event", string(event.Action))
				continue
			}
			records = append(records, &kgo.Record{
				Topic: p.topic,
				Key:   []byte(event.Subject),
				Value: value,
			})
		}

		failed := 0
		var firstErr error
		for _, res := range p.producer.ProduceSync(ctx, records...) {
			if res.Err != nil {
				failed++
				if firstErr == nil {
					firstErr = res.Err
				}
			}
		}
		p.metrics.incPublished(len(records) - failed)
		if failed > 0 {
			p.metrics.incPublishErrors(failed)
			p.logger.Error("failed to publish audit events",
				"error", firstErr,
				"failed", failed,
				"topic", p.topic,
			)
		}
		p.metrics.setBuffered(p.buffer.len())
		if ctx.Err() != nil {
			return
		}
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.buffer.droppedTotal()
}
