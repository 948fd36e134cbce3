package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"homeloan/pkg/platform/events"
	txcontext "homeloan/pkg/platform/tx"
)

// Store implements events.Outbox over the outbox table. Rows are written in
// the caller's transaction and picked up by the relay.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, evs ...events.Event) error {
	const query = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, request_id, payload, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	exec := s.execer(ctx)
	now := time.Now()
	for _, ev := range evs {
		_, err := exec.ExecContext(ctx, query,
			ev.ID,
			ev.AggregateType,
			ev.AggregateID,
			string(ev.Type),
			ev.RequestID,
			[]byte(ev.Payload),
			ev.OccurredAt,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

func (s *Store) Pending(ctx context.Context, limit int) ([]events.Event, error) {
	const query = `
		SELECT id, aggregate_type, aggregate_id, event_type, request_id, payload, occurred_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			ev      events.Event
			typ     string
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &typ, &ev.RequestID, &payload, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		ev.Type = events.Type(typ)
		ev.Payload = payload
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	const query = `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[]) AND published_at IS NULL`
	if _, err := s.execer(ctx).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
