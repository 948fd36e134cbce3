package models

import dErrors "homeloan/pkg/domain-errors"

// Status is the lifecycle state of a mortgage. Only active is mutable.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaidOff   Status = "paid_off"
	StatusDefaulted Status = "defaulted"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaidOff, StatusDefaulted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool { return s != StatusActive }

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid mortgage status: "+s)
	}
	return st, nil
}

// PaymentStatus is the state of one scheduled period.
// pending -> late -> missed; pending|late -> paid. paid is final.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentLate    PaymentStatus = "late"
	PaymentMissed  PaymentStatus = "missed"
)

// IsPayable reports whether a payment may still be applied to the period.
func (s PaymentStatus) IsPayable() bool {
	return s == PaymentPending || s == PaymentLate
}

// PaymentMethod is how funds reached the lender.
type PaymentMethod string

const (
	MethodFlutterwave  PaymentMethod = "flutterwave"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodManual       PaymentMethod = "manual"
	MethodAutoPay      PaymentMethod = "auto_pay"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	switch m {
	case MethodFlutterwave, MethodBankTransfer, MethodManual, MethodAutoPay:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid payment method: "+s)
}
