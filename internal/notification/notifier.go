// Package notification emails borrowers about produced domain events. It sits
// outside the ledger: it subscribes to the bus and never changes loan state.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"homeloan/internal/notification/metrics"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/platform/sentinel"
)

const defaultQueueSize = 256

// Notifier queues messages on dispatch and delivers them from Run, so a slow
// mail relay never holds up the request that produced the event.
type Notifier struct {
	directory Directory
	sender    Sender
	logger    *slog.Logger
	metrics   *metrics.Metrics
	queue     chan queued
}

type queued struct {
	eventType events.Type
	requestID string
	msg       Message
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

func WithQueueSize(size int) Option {
	return func(n *Notifier) {
		if size > 0 {
			n.queue = make(chan queued, size)
		}
	}
}

func New(directory Directory, sender Sender, opts ...Option) *Notifier {
	n := &Notifier{
		directory: directory,
		sender:    sender,
		logger:    slog.Default(),
		queue:     make(chan queued, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers the notifier for every event it can render.
func (n *Notifier) Subscribe(bus interface {
	Subscribe(events.Type, events.Handler)
}) {
	for _, typ := range Types() {
		bus.Subscribe(typ, n.Handle)
	}
}

// Handle renders ev and queues it. A full queue drops the message.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) error {
	msg, ok, err := Render(ev)
	if err != nil {
		n.metrics.Inc(string(ev.Type), metrics.ResultRenderFail)
		return err
	}
	if !ok {
		return nil
	}
	select {
	case n.queue <- queued{eventType: ev.Type, requestID: ev.RequestID, msg: msg}:
	default:
		n.metrics.Inc(string(ev.Type), metrics.ResultQueueFull)
		n.logger.WarnContext(ctx, "notification queue full, message dropped",
			"event_id", ev.ID,
			"event_type", ev.Type,
		)
	}
	return nil
}

// Run delivers queued messages until ctx is done, then drains what is left.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case q := <-n.queue:
			n.deliver(ctx, q)
		case <-ctx.Done():
			n.drain()
			return nil
		}
	}
}

func (n *Notifier) drain() {
	for {
		select {
		case q := <-n.queue:
			n.deliver(context.Background(), q)
		default:
			return
		}
	}
}

// Deliver looks up the recipient and sends one message synchronously.
func (n *Notifier) Deliver(ctx context.Context, msg Message) error {
	contact, err := n.directory.Lookup(ctx, msg.Recipient)
	if err != nil {
		return err
	}
	msg.To = contact.Email
	if contact.Name != "" {
		msg.To = contact.Name + " <" + contact.Email + ">"
	}
	msg.Body = greet(contact, msg.Body)
	return n.sender.Send(ctx, msg)
}

func (n *Notifier) deliver(ctx context.Context, q queued) {
	err := n.Deliver(ctx, q.msg)
	switch {
	case err == nil:
		n.metrics.Inc(string(q.eventType), metrics.ResultSent)
		n.logger.DebugContext(ctx, "notification sent",
			"request_id", q.requestID,
			"event_id", q.msg.EventID,
			"event_type", q.eventType,
		)
	case errors.Is(err, sentinel.ErrNotFound):
		n.metrics.Inc(string(q.eventType), metrics.ResultNoContact)
		n.logger.DebugContext(ctx, "no contact for recipient",
			"event_id", q.msg.EventID,
			"user_id", q.msg.Recipient,
		)
	default:
		n.metrics.Inc(string(q.eventType), metrics.ResultFailed)
		n.logger.ErrorContext(ctx, "notification failed",
			"request_id", q.requestID,
			"event_id", q.msg.EventID,
			"event_type", q.eventType,
			"error", err,
		)
	}
}
