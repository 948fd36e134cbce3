package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinalTerms mirrors the approved loan terms carried by ApplicationApproved.
type FinalTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermYears      int             `json:"term_years"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

type ApplicationApprovedPayload struct {
	ApplicationID string     `json:"application_id"`
	BuyerID       string     `json:"buyer_id"`
	BankID        string     `json:"bank_id"`
	ReviewerID    string     `json:"reviewer_id"`
	FinalTerms    FinalTerms `json:"final_terms"`
}

// ApplicationDecidedPayload is used for rejected and needs_more_info decisions.
type ApplicationDecidedPayload struct {
	ApplicationID string   `json:"application_id"`
	BuyerID       string   `json:"buyer_id"`
	BankID        string   `json:"bank_id"`
	ReviewerID    string   `json:"reviewer_id"`
	Notes         string   `json:"notes,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
}

type MortgageOriginatedPayload struct {
	MortgageID      string          `json:"mortgage_id"`
	ApplicationID   string          `json:"application_id"`
	BuyerID         string          `json:"buyer_id"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TotalPayments   int             `json:"total_payments"`
	NextPaymentDate time.Time       `json:"next_payment_date"`
}

type PaymentRecordedPayload struct {
	MortgageID       string          `json:"mortgage_id"`
	BuyerID          string          `json:"buyer_id"`
	PaymentNumber    int             `json:"payment_number"`
	TransactionID    string          `json:"transaction_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method"`
	PaidAt           time.Time       `json:"paid_at"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentsMade     int             `json:"payments_made"`
}

// MortgageStatusPayload is used for paid_off, defaulted and cancelled.
type MortgageStatusPayload struct {
	MortgageID     string `json:"mortgage_id"`
	BuyerID        string `json:"buyer_id"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	MissedPayments int    `json:"missed_payments,omitempty"`
}

type PaymentMissedPayload struct {
	MortgageID    string          `json:"mortgage_id"`
	BuyerID       string          `json:"buyer_id"`
	PaymentNumber int             `json:"payment_number"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	DueDate       time.Time       `json:"due_date"`
}

type AutoPayFailedPayload struct {
	MortgageID    string          `json:"mortgage_id"`
	BuyerID       string          `json:"buyer_id"`
	PaymentNumber int             `json:"payment_number"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Reason        string          `json:"reason"`
}
