package models

import (
	"time"

	"github.com/shopspring/decimal"

	dErrors "homeloan/pkg/domain-errors"
)

// PaymentRecord is one scheduled period. Principal and Interest split
// AmountDue as scheduled at origination; once the period is paid they hold
// the split of AmountPaid actually applied to the balance.
type PaymentRecord struct {
	PaymentNumber int             `json:"payment_number"`
	DueDate       time.Time       `json:"due_date"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Principal     decimal.Decimal `json:"principal"`
	Interest      decimal.Decimal `json:"interest"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        PaymentStatus   `json:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	Method        PaymentMethod   `json:"method,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

func (r PaymentRecord) clone() PaymentRecord {
	r.PaidAt = cloneTime(r.PaidAt)
	return r
}

// PaymentParams is a confirmed payment from the gateway adapter.
type PaymentParams struct {
	PaymentNumber int
	TransactionID string
	Amount        decimal.Decimal
	Method        PaymentMethod
	PaidAt        time.Time
	Notes         string
}

// Validate checks the payment on its own, without the ledger.
func (p PaymentParams) Validate() error {
	if p.TransactionID == "" {
		return dErrors.New(dErrors.CodeValidation, "transaction id is required")
	}
	if len(p.TransactionID) > maxTransactionIDLength {
		return dErrors.New(dErrors.CodeValidation, "transaction id is too long")
	}
	if p.PaymentNumber < 1 {
		return dErrors.New(dErrors.CodeValidation, "payment number must be positive")
	}
	if !p.Amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if _, err := ParsePaymentMethod(string(p.Method)); err != nil {
		return err
	}
	if p.PaidAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "paid at is required")
	}
	if len(p.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	return nil
}
