package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homeloan/internal/amortization"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

const (
	maxReasonLength        = 1000
	maxNotesLength         = 1000
	maxTransactionIDLength = 255
)

// Mortgage is an active loan and the ledger of its scheduled payments.
//
// Invariants:
//   - len(Payments) == TotalPayments; Payments[i].PaymentNumber == i+1
//   - PaymentsMade == count(Payments where Status == paid)
//   - PaymentsRemaining() == TotalPayments - PaymentsMade
//   - TotalPaid == sum(AmountPaid over paid records)
//   - RemainingBalance == LoanAmount - sum(Principal over paid records), never negative
//   - Status == paid_off iff PaymentsRemaining() == 0, and then RemainingBalance == 0
//   - paid records are never modified again
type Mortgage struct {
	ID            id.MortgageID    `json:"id"`
	ApplicationID id.ApplicationID `json:"application_id"`
	PropertyID    id.PropertyID    `json:"property_id"`
	BuyerID       id.UserID        `json:"buyer_id"`
	BankID        id.BankID        `json:"bank_id"`
	ProductID     string           `json:"product_id,omitempty"`

	LoanAmount       decimal.Decimal `json:"loan_amount"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	TermYears        int             `json:"term_years"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	TotalPayments    int             `json:"total_payments"`
	StartDate        time.Time       `json:"start_date"`
	FirstPaymentDate time.Time       `json:"first_payment_date"`

	PaymentsMade     int             `json:"payments_made"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Status           Status          `json:"status"`

	AutoPay           bool       `json:"auto_pay"`
	AutoPayEnabledAt  *time.Time `json:"auto_pay_enabled_at,omitempty"`
	AutoPayDisabledAt *time.Time `json:"auto_pay_disabled_at,omitempty"`

	CancelReason string     `json:"cancel_reason,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`

	Payments []PaymentRecord `json:"payments"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OriginationParams are the approved terms a mortgage is built from.
type OriginationParams struct {
	ApplicationID id.ApplicationID
	PropertyID    id.PropertyID
	BuyerID       id.UserID
	BankID        id.BankID
	ProductID     string
	LoanAmount    decimal.Decimal
	DownPayment   decimal.Decimal
	InterestRate  decimal.Decimal
	TermYears     int
}

// NewMortgage builds an active mortgage with one pending record per scheduled period.
// Periods fall due on calendar days counted from the day of now.
func NewMortgage(mortgageID id.MortgageID, p OriginationParams, now time.Time) (*Mortgage, error) {
	if p.ApplicationID.IsNil() || p.BuyerID.IsNil() || p.BankID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "application, buyer and bank are required")
	}
	if p.DownPayment.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "down payment must not be negative")
	}
	if !p.LoanAmount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "loan amount must be positive")
	}

	terms := amortization.Terms{
		Principal:         p.LoanAmount,
		AnnualRatePercent: p.InterestRate,
		TermYears:         p.TermYears,
	}
	quote, entries, err := amortization.Schedule(terms, DayOf(now))
	if err != nil {
		return nil, err
	}

	records := make([]PaymentRecord, len(entries))
	for i, e := range entries {
		records[i] = PaymentRecord{
			PaymentNumber: e.PaymentNumber,
			DueDate:       e.DueDate,
			AmountDue:     e.AmountDue,
			Principal:     e.Principal,
			Interest:      e.Interest,
			Status:        PaymentPending,
		}
	}

	return &Mortgage{
		ID:               mortgageID,
		ApplicationID:    p.ApplicationID,
		PropertyID:       p.PropertyID,
		BuyerID:          p.BuyerID,
		BankID:           p.BankID,
		ProductID:        p.ProductID,
		LoanAmount:       amortization.RoundCents(p.LoanAmount),
		DownPayment:      p.DownPayment,
		TermYears:        p.TermYears,
		InterestRate:     p.InterestRate,
		MonthlyPayment:   quote.MonthlyPayment,
		TotalPayments:    quote.TotalPayments,
		StartDate:        now,
		FirstPaymentDate: records[0].DueDate,
		RemainingBalance: amortization.RoundCents(p.LoanAmount),
		TotalPaid:        decimal.Zero,
		Status:           StatusActive,
		Payments:         records,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// PaymentsRemaining is derived, never stored.
func (m *Mortgage) PaymentsRemaining() int {
	return m.TotalPayments - m.PaymentsMade
}

// NextPaymentDate is the earliest due date among unpaid, payable records.
func (m *Mortgage) NextPaymentDate() *time.Time {
	for i := range m.Payments {
		if m.Payments[i].Status.IsPayable() {
			d := m.Payments[i].DueDate
			return &d
		}
	}
	return nil
}

// MissedCount is the number of periods marked missed.
func (m *Mortgage) MissedCount() int {
	n := 0
	for i := range m.Payments {
		if m.Payments[i].Status == PaymentMissed {
			n++
		}
	}
	return n
}

// Payment returns the record for a 1-based payment number.
func (m *Mortgage) Payment(number int) (*PaymentRecord, bool) {
	if number < 1 || number > len(m.Payments) {
		return nil, false
	}
	return &m.Payments[number-1], true
}

// PaidByTransaction returns the paid record carrying txID, if any.
func (m *Mortgage) PaidByTransaction(txID string) (*PaymentRecord, bool) {
	if txID == "" {
		return nil, false
	}
	for i := range m.Payments {
		if m.Payments[i].Status == PaymentPaid && m.Payments[i].TransactionID == txID {
			return &m.Payments[i], true
		}
	}
	return nil, false
}

func (m *Mortgage) invalidTransition(action string) error {
	return dErrors.New(dErrors.CodeInvalidTransition,
		fmt.Sprintf("cannot %s a %s mortgage", action, m.Status))
}

// CanRecordPayment checks a confirmed payment against the ledger.
// Callers check PaidByTransaction first: a replayed transaction is not an error.
func (m *Mortgage) CanRecordPayment(p PaymentParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if m.Status != StatusActive {
		return m.invalidTransition("record a payment on")
	}
	rec, ok := m.Payment(p.PaymentNumber)
	if !ok || !rec.Status.IsPayable() {
		return dErrors.New(dErrors.CodeUnknownPeriod,
			fmt.Sprintf("payment %d is not a pending or late period of this mortgage", p.PaymentNumber))
	}
	interest := m.periodInterest()
	if m.PaymentsRemaining() == 1 {
		if settle := m.RemainingBalance.Add(interest); p.Amount.LessThan(settle) {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("final payment %s does not settle the balance of %s", p.Amount.StringFixed(2), settle.StringFixed(2)))
		}
		return nil
	}
	if p.Amount.LessThan(interest) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("amount %s does not cover interest of %s", p.Amount.StringFixed(2), interest.StringFixed(2)))
	}
	return nil
}

// periodInterest is one period's interest on the current balance.
func (m *Mortgage) periodInterest() decimal.Decimal {
	r := amortization.Terms{AnnualRatePercent: m.InterestRate}.MonthlyRate()
	return amortization.RoundCents(m.RemainingBalance.Mul(r))
}

// AmountToSettle is what paying rec in full costs now: its scheduled amount,
// or the remaining balance plus interest when it is the last unpaid period.
func (m *Mortgage) AmountToSettle(rec PaymentRecord) decimal.Decimal {
	if m.PaymentsRemaining() == 1 {
		return m.RemainingBalance.Add(m.periodInterest())
	}
	return rec.AmountDue
}

// ApplyPayment marks the period paid and updates every derived field. The
// principal portion is the amount less the period's interest on the current
// balance, capped at the balance. Returns true when the payment retired the loan.
func (m *Mortgage) ApplyPayment(p PaymentParams, now time.Time) (paidOff bool) {
	interest := m.periodInterest()
	principal := decimal.Min(p.Amount.Sub(interest), m.RemainingBalance)

	rec, _ := m.Payment(p.PaymentNumber)
	paidAt := p.PaidAt
	rec.Status = PaymentPaid
	rec.PaidAt = &paidAt
	rec.TransactionID = p.TransactionID
	rec.Method = p.Method
	rec.Notes = p.Notes
	rec.AmountPaid = p.Amount
	rec.Interest = interest
	rec.Principal = principal

	m.PaymentsMade++
	m.RemainingBalance = m.RemainingBalance.Sub(principal)
	m.TotalPaid = m.TotalPaid.Add(p.Amount)
	m.UpdatedAt = now

	if m.PaymentsRemaining() == 0 {
		m.Status = StatusPaidOff
		m.AutoPay = false
		m.ClosedAt = &now
		return true
	}
	return false
}

// OverduePolicy parameterizes MarkOverdue.
type OverduePolicy struct {
	GraceWindow      time.Duration
	DefaultThreshold int
}

// OverdueResult lists what one MarkOverdue pass changed.
type OverdueResult struct {
	Late      []int
	Missed    []int
	Defaulted bool
}

func (r OverdueResult) Changed() bool {
	return len(r.Late) > 0 || len(r.Missed) > 0 || r.Defaulted
}

// MarkOverdue ages unpaid periods. A pending period whose due day is before
// the day of now becomes late; a late period more than GraceWindow past its
// due date becomes missed. Reaching DefaultThreshold missed periods defaults
// the mortgage. Non-active mortgages are left untouched.
func (m *Mortgage) MarkOverdue(now time.Time, policy OverduePolicy) OverdueResult {
	var res OverdueResult
	if m.Status != StatusActive {
		return res
	}
	for i := range m.Payments {
		rec := &m.Payments[i]
		if rec.Status == PaymentPending && DayOf(rec.DueDate).Before(DayOf(now)) {
			rec.Status = PaymentLate
			res.Late = append(res.Late, rec.PaymentNumber)
		}
		if rec.Status == PaymentLate && now.Sub(rec.DueDate) > policy.GraceWindow {
			rec.Status = PaymentMissed
			res.Missed = append(res.Missed, rec.PaymentNumber)
		}
	}
	if policy.DefaultThreshold > 0 && m.MissedCount() >= policy.DefaultThreshold {
		m.Status = StatusDefaulted
		m.AutoPay = false
		m.ClosedAt = &now
		res.Defaulted = true
	}
	if res.Changed() {
		m.UpdatedAt = now
	}
	return res
}

// CanCancel allows cancellation of active mortgages only.
func (m *Mortgage) CanCancel(reason string) error {
	if len(reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "cancel reason is too long")
	}
	if m.Status != StatusActive {
		return m.invalidTransition("cancel")
	}
	return nil
}

func (m *Mortgage) ApplyCancel(reason string, now time.Time) {
	m.Status = StatusCancelled
	m.CancelReason = strings.TrimSpace(reason)
	m.AutoPay = false
	m.ClosedAt = &now
	m.UpdatedAt = now
}

// CanSetAutoPay allows toggling auto-pay on active mortgages only.
func (m *Mortgage) CanSetAutoPay() error {
	if m.Status != StatusActive {
		return m.invalidTransition("change auto-pay on")
	}
	return nil
}

// ApplyAutoPay sets the flag. Setting it to its current value changes nothing.
func (m *Mortgage) ApplyAutoPay(enabled bool, now time.Time) {
	if m.AutoPay == enabled {
		return
	}
	m.AutoPay = enabled
	if enabled {
		m.AutoPayEnabledAt = &now
	} else {
		m.AutoPayDisabledAt = &now
	}
	m.UpdatedAt = now
}

// DueForAutoPay returns pending periods due on or before the day of now,
// each with AmountDue set to what settles it.
func (m *Mortgage) DueForAutoPay(now time.Time) []PaymentRecord {
	if m.Status != StatusActive || !m.AutoPay {
		return nil
	}
	today := DayOf(now)
	var due []PaymentRecord
	for _, rec := range m.Payments {
		if rec.Status == PaymentPending && !DayOf(rec.DueDate).After(today) {
			rec.AmountDue = m.AmountToSettle(rec)
			due = append(due, rec)
		}
	}
	return due
}

// CheckInvariants recomputes every derived field from the payment records.
func (m *Mortgage) CheckInvariants() error {
	if len(m.Payments) != m.TotalPayments {
		return invariantErr("payment history has %d records, want %d", len(m.Payments), m.TotalPayments)
	}
	made := 0
	paid := decimal.Zero
	principal := decimal.Zero
	for i, rec := range m.Payments {
		if rec.PaymentNumber != i+1 {
			return invariantErr("payment record %d is out of order", rec.PaymentNumber)
		}
		if rec.Status == PaymentPaid {
			made++
			paid = paid.Add(rec.AmountPaid)
			principal = principal.Add(rec.Principal)
		}
	}
	if made != m.PaymentsMade {
		return invariantErr("payments made %d, but %d records are paid", m.PaymentsMade, made)
	}
	if m.PaymentsMade+m.PaymentsRemaining() != m.TotalPayments {
		return invariantErr("payments made plus remaining does not equal total")
	}
	if !paid.Equal(m.TotalPaid) {
		return invariantErr("total paid %s, but paid records sum to %s", m.TotalPaid, paid)
	}
	if !m.LoanAmount.Sub(principal).Equal(m.RemainingBalance) {
		return invariantErr("remaining balance %s does not match principal repaid", m.RemainingBalance)
	}
	if m.RemainingBalance.IsNegative() {
		return invariantErr("remaining balance is negative")
	}
	if (m.Status == StatusPaidOff) != (m.PaymentsRemaining() == 0) {
		return invariantErr("status %s with %d payments remaining", m.Status, m.PaymentsRemaining())
	}
	if m.Status == StatusPaidOff && !m.RemainingBalance.IsZero() {
		return invariantErr("paid off with balance %s", m.RemainingBalance)
	}
	return nil
}

func invariantErr(format string, args ...any) error {
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf(format, args...))
}

// Clone returns a deep copy.
func (m *Mortgage) Clone() *Mortgage {
	c := *m
	c.Payments = make([]PaymentRecord, len(m.Payments))
	for i, rec := range m.Payments {
		c.Payments[i] = rec.clone()
	}
	c.AutoPayEnabledAt = cloneTime(m.AutoPayEnabledAt)
	c.AutoPayDisabledAt = cloneTime(m.AutoPayDisabledAt)
	c.ClosedAt = cloneTime(m.ClosedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// DayOf truncates t to midnight UTC. Due dates are calendar days.
func DayOf(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
