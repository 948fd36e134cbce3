package notification

import (
	"fmt"
	"strings"

	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/events"
)

const dateLayout = "2 January 2006"

// Message is one email to one user.
type Message struct {
	EventID   string
	Recipient id.UserID
	To        string
	Subject   string
	Body      string
}

// Render turns a produced event into a message for the borrower. ok is false
// for event types nobody is told about.
func Render(ev events.Event) (msg Message, ok bool, err error) {
	var recipient, subject, body string
	switch ev.Type {
	case events.ApplicationApproved:
		var p events.ApplicationApprovedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		subject = "Your loan application was approved"
		body = fmt.Sprintf("Your application has been approved for %s at %s%% over %d years.\nMonthly payment: %s.\nYour mortgage will be set up shortly.",
			p.FinalTerms.Amount.StringFixed(2), p.FinalTerms.InterestRate.String(), p.FinalTerms.TermYears,
			p.FinalTerms.MonthlyPayment.StringFixed(2))

	case events.ApplicationRejected, events.ApplicationNeedsMoreInfo:
		var p events.ApplicationDecidedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		if ev.Type == events.ApplicationRejected {
			subject = "Your loan application was declined"
			body = "The bank has declined your application."
		} else {
			subject = "Your loan application needs more information"
			body = "The bank needs more information before deciding on your application."
		}
		if p.Notes != "" {
			body += "\n\nReviewer notes: " + p.Notes
		}
		if len(p.Conditions) > 0 {
			body += "\n\nPlease provide:\n- " + strings.Join(p.Conditions, "\n- ")
		}

	case events.MortgageOriginated:
		var p events.MortgageOriginatedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		subject = "Your mortgage is active"
		body = fmt.Sprintf("Your mortgage of %s is now active.\n%d monthly payments of %s, the first due on %s.",
			p.LoanAmount.StringFixed(2), p.TotalPayments, p.MonthlyPayment.StringFixed(2),
			p.NextPaymentDate.Format(dateLayout))

	case events.PaymentRecorded:
		var p events.PaymentRecordedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		subject = fmt.Sprintf("Payment %d received", p.PaymentNumber)
		body = fmt.Sprintf("We received %s for payment %d (reference %s).\nRemaining balance: %s.",
			p.Amount.StringFixed(2), p.PaymentNumber, p.TransactionID, p.RemainingBalance.StringFixed(2))

	case events.PaymentMissed:
		var p events.PaymentMissedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		subject = fmt.Sprintf("Payment %d was missed", p.PaymentNumber)
		body = fmt.Sprintf("Payment %d of %s, due on %s, has not been received and is now recorded as missed.\nPlease contact your bank.",
			p.PaymentNumber, p.AmountDue.StringFixed(2), p.DueDate.Format(dateLayout))

	case events.AutoPayFailed:
		var p events.AutoPayFailedPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		subject = fmt.Sprintf("Automatic payment %d failed", p.PaymentNumber)
		body = fmt.Sprintf("We could not collect %s for payment %d.\nReason: %s\nThe payment is still due; please pay it manually.",
			p.AmountDue.StringFixed(2), p.PaymentNumber, p.Reason)

	case events.MortgagePaidOff, events.MortgageDefaulted, events.MortgageCancelled:
		var p events.MortgageStatusPayload
		if err := ev.Decode(&p); err != nil {
			return Message{}, false, err
		}
		recipient = p.BuyerID
		switch ev.Type {
		case events.MortgagePaidOff:
			subject = "Your mortgage is paid off"
			body = "Congratulations, your final payment has been received and your mortgage is closed."
		case events.MortgageDefaulted:
			subject = "Your mortgage is in default"
			body = fmt.Sprintf("Your mortgage has been placed in default after %d missed payments. Please contact your bank.", p.MissedPayments)
		default:
			subject = "Your mortgage was cancelled"
			body = "Your mortgage has been cancelled."
			if p.Reason != "" {
				body += "\nReason: " + p.Reason
			}
		}

	default:
		return Message{}, false, nil
	}

	userID, err := id.ParseUserID(recipient)
	if err != nil {
		return Message{}, false, fmt.Errorf("%s: recipient: %w", ev.Type, err)
	}
	return Message{
		EventID:   ev.ID.String(),
		Recipient: userID,
		Subject:   subject,
		Body:      body,
	}, true, nil
}

// Types lists the events Render handles.
func Types() []events.Type {
	return []events.Type{
		events.ApplicationApproved,
		events.ApplicationRejected,
		events.ApplicationNeedsMoreInfo,
		events.MortgageOriginated,
		events.PaymentRecorded,
		events.PaymentMissed,
		events.AutoPayFailed,
		events.MortgagePaidOff,
		events.MortgageDefaulted,
		events.MortgageCancelled,
	}
}
