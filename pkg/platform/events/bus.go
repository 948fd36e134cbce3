package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists events. Implementations join the SQL transaction carried on
// ctx when there is one.
type Store interface {
	Append(ctx context.Context, evs ...Event) error
}

// Outbox is a Store whose unpublished events can be relayed.
type Outbox interface {
	Store
	Pending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, ev Event) error

// Bus appends events to a Store and fans them out to in-process subscribers.
type Bus struct {
	store  Store
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Type][]Handler
}

type BusOption func(*Bus)

func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBus(store Store, opts ...BusOption) *Bus {
	b := &Bus{
		store:    store,
		logger:   slog.Default(),
		handlers: make(map[Type][]Handler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events of type typ. Handlers run in registration order.
func (b *Bus) Subscribe(typ Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[typ] = append(b.handlers[typ], h)
}

// Append persists events. Call it inside the aggregate transaction.
func (b *Bus) Append(ctx context.Context, evs ...Event) error {
	if len(evs) == 0 || b.store == nil {
		return nil
	}
	return b.store.Append(ctx, evs...)
}

// Dispatch delivers events to subscribers. Call it after the aggregate
// transaction commits. Handler failures are logged and do not stop delivery.
func (b *Bus) Dispatch(ctx context.Context, evs ...Event) {
	for _, ev := range evs {
		b.mu.RLock()
		handlers := append([]Handler(nil), b.handlers[ev.Type]...)
		b.mu.RUnlock()

		for _, h := range handlers {
			if err := h(ctx, ev); err != nil {
				b.logger.ErrorContext(ctx, "event handler failed",
					"event_id", ev.ID,
					"event_type", ev.Type,
					"aggregate_id", ev.AggregateID,
					"request_id", ev.RequestID,
					"error", err,
				)
			}
		}
	}
}

// Publish appends then dispatches, for callers without an aggregate transaction.
func (b *Bus) Publish(ctx context.Context, evs ...Event) error {
	if err := b.Append(ctx, evs...); err != nil {
		return err
	}
	b.Dispatch(ctx, evs...)
	return nil
}
