package handler

import (
	"time"

	"homeloan/internal/servicing/models"
	"homeloan/internal/servicing/service"
)

// MortgageResponse is the mortgage header. The schedule is served separately.
type MortgageResponse struct {
	ID                string     `json:"id"`
	ApplicationID     string     `json:"application_id"`
	PropertyID        string     `json:"property_id,omitempty"`
	BuyerID           string     `json:"buyer_id"`
	BankID            string     `json:"bank_id"`
	ProductID         string     `json:"product_id,omitempty"`
	LoanAmount        string     `json:"loan_amount"`
	DownPayment       string     `json:"down_payment"`
	TermYears         int        `json:"term_years"`
	InterestRate      string     `json:"interest_rate"`
	MonthlyPayment    string     `json:"monthly_payment"`
	TotalPayments     int        `json:"total_payments"`
	PaymentsMade      int        `json:"payments_made"`
	PaymentsRemaining int        `json:"payments_remaining"`
	RemainingBalance  string     `json:"remaining_balance"`
	TotalPaid         string     `json:"total_paid"`
	Status            string     `json:"status"`
	StartDate         time.Time  `json:"start_date"`
	FirstPaymentDate  time.Time  `json:"first_payment_date"`
	NextPaymentDate   *time.Time `json:"next_payment_date,omitempty"`
	MissedPayments    int        `json:"missed_payments"`
	AutoPay           bool       `json:"auto_pay"`
	AutoPayEnabledAt  *time.Time `json:"auto_pay_enabled_at,omitempty"`
	AutoPayDisabledAt *time.Time `json:"auto_pay_disabled_at,omitempty"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type PaymentResponse struct {
	PaymentNumber int        `json:"payment_number"`
	DueDate       time.Time  `json:"due_date"`
	AmountDue     string     `json:"amount_due"`
	Principal     string     `json:"principal"`
	Interest      string     `json:"interest"`
	AmountPaid    string     `json:"amount_paid,omitempty"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
}

type ListResponse struct {
	Mortgages []*MortgageResponse `json:"mortgages"`
	Count     int                 `json:"count"`
}

type ScheduleResponse struct {
	MortgageID string             `json:"mortgage_id"`
	Payments   []*PaymentResponse `json:"payments"`
}

type PaymentRecordedResponse struct {
	Mortgage  *MortgageResponse `json:"mortgage"`
	Payment   *PaymentResponse  `json:"payment"`
	Duplicate bool              `json:"duplicate"`
}

func FromMortgage(m *models.Mortgage) *MortgageResponse {
	resp := &MortgageResponse{
		ID:                m.ID.String(),
		ApplicationID:     m.ApplicationID.String(),
		BuyerID:           m.BuyerID.String(),
		BankID:            m.BankID.String(),
		ProductID:         m.ProductID,
		LoanAmount:        m.LoanAmount.StringFixed(2),
		DownPayment:       m.DownPayment.StringFixed(2),
		TermYears:         m.TermYears,
		InterestRate:      m.InterestRate.String(),
		MonthlyPayment:    m.MonthlyPayment.StringFixed(2),
		TotalPayments:     m.TotalPayments,
		PaymentsMade:      m.PaymentsMade,
		PaymentsRemaining: m.PaymentsRemaining(),
		RemainingBalance:  m.RemainingBalance.StringFixed(2),
		TotalPaid:         m.TotalPaid.StringFixed(2),
		Status:            string(m.Status),
		StartDate:         m.StartDate,
		FirstPaymentDate:  m.FirstPaymentDate,
		NextPaymentDate:   m.NextPaymentDate(),
		MissedPayments:    m.MissedCount(),
		AutoPay:           m.AutoPay,
		AutoPayEnabledAt:  m.AutoPayEnabledAt,
		AutoPayDisabledAt: m.AutoPayDisabledAt,
		CancelReason:      m.CancelReason,
		ClosedAt:          m.ClosedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if !m.PropertyID.IsNil() {
		resp.PropertyID = m.PropertyID.String()
	}
	return resp
}

func FromPayment(r models.PaymentRecord) *PaymentResponse {
	resp := &PaymentResponse{
		PaymentNumber: r.PaymentNumber,
		DueDate:       r.DueDate,
		AmountDue:     r.AmountDue.StringFixed(2),
		Principal:     r.Principal.StringFixed(2),
		Interest:      r.Interest.StringFixed(2),
		Status:        string(r.Status),
		PaidAt:        r.PaidAt,
		Method:        string(r.Method),
		TransactionID: r.TransactionID,
	}
	if r.Status == models.PaymentPaid {
		resp.AmountPaid = r.AmountPaid.StringFixed(2)
	}
	return resp
}

func FromMortgages(ms []*models.Mortgage) *ListResponse {
	out := make([]*MortgageResponse, len(ms))
	for i, m := range ms {
		out[i] = FromMortgage(m)
	}
	return &ListResponse{Mortgages: out, Count: len(out)}
}

func FromSchedule(mortgageID string, records []models.PaymentRecord) *ScheduleResponse {
	out := make([]*PaymentResponse, len(records))
	for i, r := range records {
		out[i] = FromPayment(r)
	}
	return &ScheduleResponse{MortgageID: mortgageID, Payments: out}
}

func FromPaymentResult(res *service.PaymentResult) *PaymentRecordedResponse {
	return &PaymentRecordedResponse{
		Mortgage:  FromMortgage(res.Mortgage),
		Payment:   FromPayment(res.Payment),
		Duplicate: res.Duplicate,
	}
}
