// Package kafka is the producer side of the event relay.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"homeloan/internal/platform/config"
)

// Producer wraps a franz-go client configured for durable, ordered produce.
type Producer struct {
	client *kgo.Client
	cfg    config.KafkaConfig
	logger *slog.Logger
}

// New connects to cfg.Brokers. Returns nil when no brokers are configured
// (events stay in the outbox).
func New(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Producer{client: client, cfg: cfg, logger: logger}, nil
}

// EnsureTopic creates the event topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, p.cfg.Partitions, -1, nil, p.cfg.Topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.cfg.Topic, err)
	}
	if resp.Err != nil {
		if errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create topic %s: %w", p.cfg.Topic, resp.Err)
	}
	p.logger.InfoContext(ctx, "kafka topic created", "topic", p.cfg.Topic, "partitions", p.cfg.Partitions)
	return nil
}

// ProduceSync blocks until every record is acknowledged and returns the
// first failure.
func (p *Producer) ProduceSync(ctx context.Context, recs ...*kgo.Record) error {
	return p.client.ProduceSync(ctx, recs...).FirstErr()
}

// Health pings the brokers.
func (p *Producer) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close() {
	p.client.Close()
}
