package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeloan/pkg/platform/events"
)

type entry struct {
	event       events.Event
	publishedAt time.Time
}

// InMemoryStore is an append-only event log that also acts as an outbox.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, evs ...events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range evs {
		s.entries = append(s.entries, entry{event: ev})
	}
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if !e.publishedAt.IsZero() {
			continue
		}
		out = append(out, e.event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if _, ok := want[s.entries[i].event.ID]; ok && s.entries[i].publishedAt.IsZero() {
			s.entries[i].publishedAt = at
		}
	}
	return nil
}

// ListByAggregate returns events for one aggregate in append order.
func (s *InMemoryStore) ListByAggregate(_ context.Context, aggregateID string) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if e.event.AggregateID == aggregateID {
			out = append(out, e.event)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.event)
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
