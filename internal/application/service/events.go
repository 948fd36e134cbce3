package service

import (
	"context"
	"time"

	"homeloan/internal/application/models"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/requestcontext"
)

// decisionEvent builds the event for the application's decided status.
func decisionEvent(ctx context.Context, a *models.LoanApplication, now time.Time) (events.Event, error) {
	review := a.BankReview
	var (
		ev  events.Event
		err error
	)
	switch review.Decision {
	case models.DecisionApproved:
		terms := review.FinalTerms
		ev, err = events.New(events.ApplicationApproved, events.AggregateApplication, a.ID.String(),
			events.ApplicationApprovedPayload{
				ApplicationID: a.ID.String(),
				BuyerID:       a.BuyerID.String(),
				BankID:        a.BankID.String(),
				ReviewerID:    review.ReviewerID.String(),
				FinalTerms: events.FinalTerms{
					Amount:         terms.Amount,
					InterestRate:   terms.InterestRate,
					TermYears:      terms.TermYears,
					MonthlyPayment: terms.MonthlyPayment,
				},
			}, now)
	default:
		typ := events.ApplicationRejected
		if review.Decision == models.DecisionNeedsMoreInfo {
			typ = events.ApplicationNeedsMoreInfo
		}
		ev, err = events.New(typ, events.AggregateApplication, a.ID.String(),
			events.ApplicationDecidedPayload{
				ApplicationID: a.ID.String(),
				BuyerID:       a.BuyerID.String(),
				BankID:        a.BankID.String(),
				ReviewerID:    review.ReviewerID.String(),
				Notes:         review.Notes,
				Conditions:    review.Conditions,
			}, now)
	}
	if err != nil {
		return events.Event{}, err
	}
	ev.RequestID = requestcontext.RequestID(ctx)
	return ev, nil
}
