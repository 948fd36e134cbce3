package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	dErrors "homeloan/pkg/domain-errors"
)

// Entry is one scheduled period.
//
// Interest is the remaining balance before the period times the monthly rate,
// rounded to the cent. Principal is AmountDue minus Interest, except in the
// final period where Principal is the whole remaining balance and AmountDue
// is that balance plus its interest. Summed over the schedule, Principal
// equals the loan principal exactly.
type Entry struct {
	PaymentNumber int
	DueDate       time.Time
	AmountDue     decimal.Decimal
	Principal     decimal.Decimal
	Interest      decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// maxPaymentAdjustments bounds the cent moves amortize tries.
const maxPaymentAdjustments = 100

var cent = decimal.New(1, -centPlaces)

// Schedule builds the full payment schedule. Period k is due k calendar
// months after start.
func Schedule(t Terms, start time.Time) (Quote, []Entry, error) {
	q, entries, err := amortize(t)
	if err != nil {
		return Quote{}, nil, err
	}
	for i := range entries {
		entries[i].DueDate = AddMonths(start, entries[i].PaymentNumber)
	}
	return q, entries, nil
}

func amortize(t Terms) (Quote, []Entry, error) {
	if err := t.Validate(); err != nil {
		return Quote{}, nil, err
	}
	n := t.TotalPayments()
	r := t.MonthlyRate()
	principal := RoundCents(t.Principal)
	payment := RoundCents(exactPayment(t.Principal, r, n))

	for range maxPaymentAdjustments {
		if !payment.IsPositive() {
			break
		}
		entries, shift := runSchedule(principal, r, payment, n)
		if shift == 0 {
			total := decimal.Zero
			for _, e := range entries {
				total = total.Add(e.AmountDue)
			}
			return Quote{
				MonthlyPayment: payment,
				TotalPayments:  n,
				TotalPayable:   total,
				TotalInterest:  total.Sub(principal),
			}, entries, nil
		}
		payment = payment.Add(cent.Mul(decimal.NewFromInt(int64(shift))))
	}
	return Quote{}, nil, dErrors.New(dErrors.CodeValidation, "principal is too small to amortize over the term")
}

// runSchedule amortizes balance at a fixed payment. A non-zero shift means
// the payment does not work: +1 when a period's interest exceeds it, -1 when
// it retires the loan before the final period.
func runSchedule(balance, r, payment decimal.Decimal, n int) ([]Entry, int) {
	entries := make([]Entry, 0, n)
	for k := 1; k <= n; k++ {
		e := Entry{
			PaymentNumber: k,
			Interest:      RoundCents(balance.Mul(r)),
		}
		if k == n {
			e.Principal = balance
			e.AmountDue = balance.Add(e.Interest)
		} else {
			e.AmountDue = payment
			e.Principal = payment.Sub(e.Interest)
			switch {
			case e.Principal.IsNegative():
				return nil, 1
			case e.Principal.GreaterThanOrEqual(balance):
				return nil, -1
			}
		}
		balance = balance.Sub(e.Principal)
		e.BalanceAfter = balance
		entries = append(entries, e)
	}
	return entries, 0
}

// AddMonths advances t by k calendar months, clamping the day to the last
// day of the target month. Clock time and location are preserved.
func AddMonths(t time.Time, k int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(k), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
