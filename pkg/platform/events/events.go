// Package events carries domain events from the aggregates that raise them to
// in-process subscribers and, through the outbox, to Kafka.
//
// Services Append events inside their aggregate transaction so the outbox row
// commits with the state change, then Dispatch them after commit so
// subscribers never run while the aggregate lock is held.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event. Values are stable wire identifiers.
type Type string

const (
	ApplicationApproved      Type = "application.approved"
	ApplicationRejected      Type = "application.rejected"
	ApplicationNeedsMoreInfo Type = "application.needs_more_info"

	MortgageOriginated Type = "mortgage.originated"
	MortgageCancelled  Type = "mortgage.cancelled"
	MortgagePaidOff    Type = "mortgage.paid_off"
	MortgageDefaulted  Type = "mortgage.defaulted"
	PaymentRecorded    Type = "mortgage.payment_recorded"
	PaymentMissed      Type = "mortgage.payment_missed"
	AutoPayFailed      Type = "mortgage.autopay_failed"
)

const (
	AggregateApplication = "application"
	AggregateMortgage    = "mortgage"
)

// Event is an immutable fact. Payload is the JSON encoding of one of the
// payload structs in this package.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	Type          Type            `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// New builds an event with a fresh ID.
func New(typ Type, aggregateType, aggregateID string, payload any, occurredAt time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Event{
		ID:            uuid.New(),
		Type:          typ,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt,
		Payload:       raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
