// Package relay publishes outbox events to Kafka.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"homeloan/pkg/platform/events"
)

// Producer sends records synchronously. *kafka.Producer satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, recs ...*kgo.Record) error
}

// Relay drains the outbox at a fixed interval. Delivery is at-least-once:
// a crash between produce and mark republishes the batch, and consumers
// deduplicate on the event ID header.
type Relay struct {
	outbox   events.Outbox
	producer Producer
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(outbox events.Outbox, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		interval: time.Second,
		batch:    100,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Errors are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	recs := make([]*kgo.Record, 0, len(pending))
	ids := make([]uuid.UUID, 0, len(pending))
	for _, ev := range pending {
		value, err := json.Marshal(ev)
		if err != nil {
			return 0, fmt.Errorf("marshal event %s: %w", ev.ID, err)
		}
		recs = append(recs, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(ev.AggregateID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(ev.ID.String())},
				{Key: "event_type", Value: []byte(ev.Type)},
			},
		})
		ids = append(ids, ev.ID)
	}

	if err := r.producer.ProduceSync(ctx, recs...); err != nil {
		return 0, fmt.Errorf("produce outbox batch: %w", err)
	}
	if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "outbox batch relayed", "count", len(recs), "topic", r.topic)
	return len(recs), nil
}
