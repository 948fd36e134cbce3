package service

import (
	"context"
	"time"

	"homeloan/internal/servicing/models"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/requestcontext"
)

// paymentEvents builds PaymentRecorded for the period just paid, plus
// MortgagePaidOff when that payment retired the loan.
func paymentEvents(ctx context.Context, m *models.Mortgage, number int, now time.Time) ([]events.Event, error) {
	rec, _ := m.Payment(number)
	var paidAt time.Time
	if rec.PaidAt != nil {
		paidAt = *rec.PaidAt
	}
	recorded, err := events.New(events.PaymentRecorded, events.AggregateMortgage, m.ID.String(),
		events.PaymentRecordedPayload{
			MortgageID:       m.ID.String(),
			BuyerID:          m.BuyerID.String(),
			PaymentNumber:    rec.PaymentNumber,
			TransactionID:    rec.TransactionID,
			Amount:           rec.AmountPaid,
			Method:           string(rec.Method),
			PaidAt:           paidAt,
			RemainingBalance: m.RemainingBalance,
			PaymentsMade:     m.PaymentsMade,
		}, now)
	if err != nil {
		return nil, err
	}
	out := []events.Event{recorded}
	if m.Status == models.StatusPaidOff {
		paidOff, err := statusEvents(ctx, m, events.MortgagePaidOff, now)
		if err != nil {
			return nil, err
		}
		out = append(out, paidOff...)
	}
	return stamp(ctx, out), nil
}

// overdueEvents builds PaymentMissed per newly missed period, plus
// MortgageDefaulted when the pass defaulted the mortgage.
func overdueEvents(ctx context.Context, m *models.Mortgage, res models.OverdueResult, now time.Time) ([]events.Event, error) {
	out := make([]events.Event, 0, len(res.Missed)+1)
	for _, number := range res.Missed {
		rec, _ := m.Payment(number)
		ev, err := events.New(events.PaymentMissed, events.AggregateMortgage, m.ID.String(),
			events.PaymentMissedPayload{
				MortgageID:    m.ID.String(),
				BuyerID:       m.BuyerID.String(),
				PaymentNumber: number,
				AmountDue:     rec.AmountDue,
				DueDate:       rec.DueDate,
			}, now)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if res.Defaulted {
		defaulted, err := statusEvents(ctx, m, events.MortgageDefaulted, now)
		if err != nil {
			return nil, err
		}
		out = append(out, defaulted...)
	}
	return stamp(ctx, out), nil
}

func statusEvents(ctx context.Context, m *models.Mortgage, typ events.Type, now time.Time) ([]events.Event, error) {
	payload := events.MortgageStatusPayload{
		MortgageID: m.ID.String(),
		BuyerID:    m.BuyerID.String(),
		Status:     string(m.Status),
		Reason:     m.CancelReason,
	}
	if m.Status == models.StatusDefaulted {
		payload.MissedPayments = m.MissedCount()
	}
	ev, err := events.New(typ, events.AggregateMortgage, m.ID.String(), payload, now)
	if err != nil {
		return nil, err
	}
	return stamp(ctx, []events.Event{ev}), nil
}

func stamp(ctx context.Context, evs []events.Event) []events.Event {
	requestID := requestcontext.RequestID(ctx)
	for i := range evs {
		evs[i].RequestID = requestID
	}
	return evs
}
