package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

type MortgageModelSuite struct {
	suite.Suite
	originatedAt time.Time
	policy       OverduePolicy
}

func TestMortgageModelSuite(t *testing.T) {
	suite.Run(t, new(MortgageModelSuite))
}

func (s *MortgageModelSuite) SetupTest() {
	s.originatedAt = time.Date(2026, 1, 10, 12, 30, 0, 0, time.UTC)
	s.policy = OverduePolicy{GraceWindow: 30 * 24 * time.Hour, DefaultThreshold: 3}
}

func (s *MortgageModelSuite) originate(amount int64, rate string, years int) *Mortgage {
	m, err := NewMortgage(id.NewMortgageID(), OriginationParams{
		ApplicationID: id.NewApplicationID(),
		PropertyID:    id.PropertyID(uuid.New()),
		BuyerID:       id.UserID(uuid.New()),
		BankID:        id.BankID(uuid.New()),
		LoanAmount:    decimal.NewFromInt(amount),
		DownPayment:   decimal.NewFromInt(0),
		InterestRate:  decimal.RequireFromString(rate),
		TermYears:     years,
	}, s.originatedAt)
	s.Require().NoError(err)
	return m
}

func (s *MortgageModelSuite) pay(m *Mortgage, number int) PaymentParams {
	rec, ok := m.Payment(number)
	s.Require().True(ok)
	return PaymentParams{
		PaymentNumber: number,
		TransactionID: fmt.Sprintf("txn-%d", number),
		Amount:        rec.AmountDue,
		Method:        MethodBankTransfer,
		PaidAt:        rec.DueDate,
	}
}

func (s *MortgageModelSuite) TestNewMortgage() {
	m := s.originate(10_000_000, "12", 20)

	s.Equal(StatusActive, m.Status)
	s.Equal(240, m.TotalPayments)
	s.Len(m.Payments, 240)
	s.Equal(240, m.PaymentsRemaining())
	s.Equal("110108.61", m.MonthlyPayment.StringFixed(2))
	s.True(m.RemainingBalance.Equal(decimal.NewFromInt(10_000_000)))
	s.Equal(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), m.FirstPaymentDate)
	s.Equal(m.FirstPaymentDate, *m.NextPaymentDate())
	s.Equal(s.originatedAt, m.StartDate)
	for _, rec := range m.Payments {
		s.Equal(PaymentPending, rec.Status)
	}
	s.NoError(m.CheckInvariants())
}

func (s *MortgageModelSuite) TestNewMortgageRejectsBadTerms() {
	_, err := NewMortgage(id.NewMortgageID(), OriginationParams{
		ApplicationID: id.NewApplicationID(),
		BuyerID:       id.UserID(uuid.New()),
		BankID:        id.BankID(uuid.New()),
		LoanAmount:    decimal.NewFromInt(100_000),
		InterestRate:  decimal.NewFromInt(5),
		TermYears:     31,
	}, s.originatedAt)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *MortgageModelSuite) TestScheduleExhaustionPaysOff() {
	m := s.originate(10_000_000, "12", 20)
	previous := m.RemainingBalance

	for n := 1; n <= m.TotalPayments; n++ {
		p := s.pay(m, n)
		s.Require().NoError(m.CanRecordPayment(p))
		paidOff := m.ApplyPayment(p, p.PaidAt)
		s.Equal(n == m.TotalPayments, paidOff)

		s.False(m.RemainingBalance.GreaterThan(previous), "balance must not increase at payment %d", n)
		previous = m.RemainingBalance
		s.Require().NoError(m.CheckInvariants())
	}

	s.Equal(StatusPaidOff, m.Status)
	s.True(m.RemainingBalance.IsZero())
	s.Equal(240, m.PaymentsMade)
	s.Equal(0, m.PaymentsRemaining())
	s.Equal("26426069.94", m.TotalPaid.StringFixed(2))
	s.Nil(m.NextPaymentDate())
	s.NotNil(m.ClosedAt)
}

func (s *MortgageModelSuite) TestOutOfOrderPaymentsStillRetireLoan() {
	m := s.originate(1000, "0", 1)
	for _, n := range []int{12, 3, 1, 2, 4, 5, 6, 7, 8, 9, 10, 11} {
		p := s.pay(m, n)
		s.Require().NoError(m.CanRecordPayment(p))
		m.ApplyPayment(p, p.PaidAt)
		s.Require().NoError(m.CheckInvariants())
	}
	s.Equal(StatusPaidOff, m.Status)
	s.True(m.RemainingBalance.IsZero())
	s.Equal("1000.00", m.TotalPaid.StringFixed(2))
}

func (s *MortgageModelSuite) TestPrincipalPortionShrinksInterest() {
	m := s.originate(200_000, "6.5", 30)
	first, _ := m.Payment(1)
	second, _ := m.Payment(2)

	s.Equal("1083.33", first.Interest.StringFixed(2))
	s.True(second.Interest.LessThan(first.Interest))
	s.True(second.Principal.GreaterThan(first.Principal))

	p := s.pay(m, 1)
	m.ApplyPayment(p, p.PaidAt)
	s.True(m.RemainingBalance.Equal(decimal.NewFromInt(200_000).Sub(first.Principal)))
}

func (s *MortgageModelSuite) TestCanRecordPaymentRefusals() {
	m := s.originate(1000, "0", 1)
	paid := s.pay(m, 1)
	m.ApplyPayment(paid, paid.PaidAt)

	tests := []struct {
		name   string
		mutate func(*PaymentParams)
		code   dErrors.Code
	}{
		{"already paid period", func(p *PaymentParams) { p.PaymentNumber = 1; p.TransactionID = "other" }, dErrors.CodeUnknownPeriod},
		{"period beyond schedule", func(p *PaymentParams) { p.PaymentNumber = 13 }, dErrors.CodeUnknownPeriod},
		{"zero period", func(p *PaymentParams) { p.PaymentNumber = 0 }, dErrors.CodeValidation},
		{"missing transaction", func(p *PaymentParams) { p.TransactionID = "" }, dErrors.CodeValidation},
		{"non positive amount", func(p *PaymentParams) { p.Amount = decimal.Zero }, dErrors.CodeValidation},
		{"unknown method", func(p *PaymentParams) { p.Method = "cash" }, dErrors.CodeValidation},
		{"no paid at", func(p *PaymentParams) { p.PaidAt = time.Time{} }, dErrors.CodeValidation},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			p := s.pay(m, 2)
			tt.mutate(&p)
			err := m.CanRecordPayment(p)
			s.Require().Error(err)
			s.Equal(tt.code, dErrors.CodeOf(err))
		})
	}
}

func (s *MortgageModelSuite) TestConfirmedAmountDrivesPrincipal() {
	m := s.originate(200_000, "6.5", 30)

	s.Run("a cent short still records against interest first", func() {
		p := s.pay(m, 1)
		p.Amount = decimal.RequireFromString("1264.13")
		s.Require().NoError(m.CanRecordPayment(p))
		m.ApplyPayment(p, p.PaidAt)

		rec, _ := m.Payment(1)
		s.Equal("1264.13", rec.AmountPaid.StringFixed(2))
		s.Equal("1083.33", rec.Interest.StringFixed(2))
		s.Equal("180.80", rec.Principal.StringFixed(2))
		s.Equal("199819.20", m.RemainingBalance.StringFixed(2))
		s.Equal("1264.13", m.TotalPaid.StringFixed(2))
		s.NoError(m.CheckInvariants())
	})

	s.Run("amount below the period's interest is refused", func() {
		p := s.pay(m, 2)
		p.Amount = decimal.NewFromInt(1000)
		s.True(dErrors.HasCode(m.CanRecordPayment(p), dErrors.CodeValidation))
	})

	s.Run("overpayment reduces principal further", func() {
		p := s.pay(m, 2)
		p.Amount = decimal.NewFromInt(2000)
		s.Require().NoError(m.CanRecordPayment(p))
		m.ApplyPayment(p, p.PaidAt)

		rec, _ := m.Payment(2)
		s.Equal("1082.35", rec.Interest.StringFixed(2))
		s.Equal("917.65", rec.Principal.StringFixed(2))
		s.Equal("3264.13", m.TotalPaid.StringFixed(2))
		s.NoError(m.CheckInvariants())
	})
}

func (s *MortgageModelSuite) TestFinalPaymentSettlesWhatIsLeft() {
	m := s.originate(1000, "0", 1)
	for n := 1; n <= 11; n++ {
		p := s.pay(m, n)
		p.Amount = decimal.RequireFromString("83.34")
		s.Require().NoError(m.CanRecordPayment(p))
		m.ApplyPayment(p, p.PaidAt)
	}
	s.Equal("83.26", m.RemainingBalance.StringFixed(2))

	last, _ := m.Payment(12)
	s.Equal("83.26", m.AmountToSettle(*last).StringFixed(2))

	short := s.pay(m, 12)
	short.Amount = decimal.RequireFromString("83.25")
	s.True(dErrors.HasCode(m.CanRecordPayment(short), dErrors.CodeValidation))

	p := s.pay(m, 12)
	p.Amount = m.AmountToSettle(*last)
	s.Require().NoError(m.CanRecordPayment(p))
	s.True(m.ApplyPayment(p, p.PaidAt))
	s.Equal(StatusPaidOff, m.Status)
	s.True(m.RemainingBalance.IsZero())
	s.Equal("1000.00", m.TotalPaid.StringFixed(2))
	s.NoError(m.CheckInvariants())
}

func (s *MortgageModelSuite) TestPaidByTransaction() {
	m := s.originate(1000, "0", 1)
	p := s.pay(m, 1)
	m.ApplyPayment(p, p.PaidAt)

	rec, ok := m.PaidByTransaction("txn-1")
	s.True(ok)
	s.Equal(1, rec.PaymentNumber)

	_, ok = m.PaidByTransaction("txn-2")
	s.False(ok)
	_, ok = m.PaidByTransaction("")
	s.False(ok)
}

func (s *MortgageModelSuite) TestMarkOverdueFortyDaysIsMissed() {
	m := s.originate(1000, "0", 1)
	// period 1 is due 2026-02-10; 40 days later
	now := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)

	res := m.MarkOverdue(now, s.policy)

	first, _ := m.Payment(1)
	second, _ := m.Payment(2)
	third, _ := m.Payment(3)
	s.Equal(PaymentMissed, first.Status)
	s.Equal(PaymentLate, second.Status)
	s.Equal(PaymentPending, third.Status)
	s.Equal([]int{1, 2}, res.Late)
	s.Equal([]int{1}, res.Missed)
	s.False(res.Defaulted)
	s.Equal(StatusActive, m.Status)
	s.NoError(m.CheckInvariants())
}

func (s *MortgageModelSuite) TestMarkOverdueNotLateOnDueDay() {
	m := s.originate(1000, "0", 1)
	now := time.Date(2026, 2, 10, 23, 59, 0, 0, time.UTC)

	res := m.MarkOverdue(now, s.policy)

	s.False(res.Changed())
	first, _ := m.Payment(1)
	s.Equal(PaymentPending, first.Status)
}

func (s *MortgageModelSuite) TestMarkOverdueLateRecordCanStillBePaid() {
	m := s.originate(1000, "0", 1)
	m.MarkOverdue(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), s.policy)

	p := s.pay(m, 1)
	s.Require().NoError(m.CanRecordPayment(p))
	m.ApplyPayment(p, p.PaidAt)
	s.NoError(m.CheckInvariants())
}

func (s *MortgageModelSuite) TestMarkOverdueDefaultsAtThreshold() {
	m := s.originate(1000, "0", 1)
	// periods 1..3 are more than 30 days overdue
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := m.MarkOverdue(now, s.policy)

	s.True(res.Defaulted)
	s.Equal(StatusDefaulted, m.Status)
	s.Equal(3, m.MissedCount())
	s.NoError(m.CheckInvariants())

	again := m.MarkOverdue(now.AddDate(0, 1, 0), s.policy)
	s.False(again.Changed())

	err := m.CanRecordPayment(s.pay(m, 5))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *MortgageModelSuite) TestMissedPeriodIsUnknownPeriod() {
	m := s.originate(1000, "0", 1)
	m.MarkOverdue(time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC), s.policy)

	err := m.CanRecordPayment(s.pay(m, 1))
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownPeriod))
}

func (s *MortgageModelSuite) TestCancel() {
	m := s.originate(1000, "0", 1)
	m.ApplyAutoPay(true, s.originatedAt)

	s.Require().NoError(m.CanCancel("buyer sold property"))
	m.ApplyCancel("  buyer sold property ", s.originatedAt)

	s.Equal(StatusCancelled, m.Status)
	s.Equal("buyer sold property", m.CancelReason)
	s.False(m.AutoPay)
	s.True(dErrors.HasCode(m.CanCancel(""), dErrors.CodeInvalidTransition))
}

func (s *MortgageModelSuite) TestCancelRefusedWhenPaidOff() {
	m := s.originate(1000, "0", 1)
	for n := 1; n <= 12; n++ {
		p := s.pay(m, n)
		m.ApplyPayment(p, p.PaidAt)
	}
	s.True(dErrors.HasCode(m.CanCancel("late"), dErrors.CodeInvalidTransition))
}

func (s *MortgageModelSuite) TestAutoPayToggleStampsOnce() {
	m := s.originate(1000, "0", 1)
	on := s.originatedAt.Add(time.Hour)

	m.ApplyAutoPay(true, on)
	m.ApplyAutoPay(true, on.Add(time.Hour))
	s.True(m.AutoPay)
	s.Equal(on, *m.AutoPayEnabledAt)

	off := on.Add(48 * time.Hour)
	m.ApplyAutoPay(false, off)
	s.False(m.AutoPay)
	s.Equal(off, *m.AutoPayDisabledAt)
}

func (s *MortgageModelSuite) TestDueForAutoPay() {
	m := s.originate(1000, "0", 1)
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	s.Empty(m.DueForAutoPay(now), "auto-pay disabled")

	m.ApplyAutoPay(true, s.originatedAt)
	due := m.DueForAutoPay(now)
	s.Require().Len(due, 2)
	s.Equal(1, due[0].PaymentNumber)
	s.Equal(2, due[1].PaymentNumber)
}

func (s *MortgageModelSuite) TestCloneIsDeep() {
	m := s.originate(1000, "0", 1)
	c := m.Clone()
	p := s.pay(c, 1)
	c.ApplyPayment(p, p.PaidAt)

	first, _ := m.Payment(1)
	s.Equal(PaymentPending, first.Status)
	s.Nil(first.PaidAt)
	s.Equal(0, m.PaymentsMade)
}

func (s *MortgageModelSuite) TestCheckInvariantsDetectsDrift() {
	m := s.originate(1000, "0", 1)
	m.PaymentsMade = 1
	s.True(dErrors.HasCode(m.CheckInvariants(), dErrors.CodeInvariantViolation))
}
