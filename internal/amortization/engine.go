// Package amortization computes fixed-rate annuity payments and schedules.
//
// Everything here is pure: no I/O, no clock, no randomness. Money is carried
// as decimal.Decimal and rounded to whole cents at the boundaries.
//
// Rounding rule: the monthly payment is the annuity payment M rounded to the
// cent. Each period's interest is the cent-rounded balance times the monthly
// rate, rounded to the cent. Periods 1..n-1 are due the monthly payment; the
// final period is due its whole remaining balance plus its interest, so no
// split is ever negative and the amounts sum to the total payable exactly.
// The total tracks M*n only to within the drift the cent rounding of M
// compounds over the term. When the nearest cent would retire the loan before
// the final period, or leave a period's interest uncovered, the payment moves
// by a cent until the schedule holds.
package amortization

import (
	"github.com/shopspring/decimal"

	dErrors "homeloan/pkg/domain-errors"
)

const (
	MinTermYears = 1
	MaxTermYears = 30

	// internalPlaces bounds intermediate precision; only outputs are rounded to cents.
	internalPlaces = 28
	centPlaces     = 2
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Terms are the inputs to the engine.
type Terms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermYears         int
}

// Quote is the headline result for a set of terms.
type Quote struct {
	MonthlyPayment decimal.Decimal
	TotalPayments  int
	TotalPayable   decimal.Decimal
	TotalInterest  decimal.Decimal
}

// Validate checks that terms can be amortized.
func (t Terms) Validate() error {
	if !t.Principal.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "principal must be greater than zero")
	}
	if t.AnnualRatePercent.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "interest rate must not be negative")
	}
	if t.TermYears < MinTermYears || t.TermYears > MaxTermYears {
		return dErrors.New(dErrors.CodeValidation, "term must be between 1 and 30 years")
	}
	return nil
}

// TotalPayments is the number of monthly periods.
func (t Terms) TotalPayments() int {
	return t.TermYears * 12
}

// MonthlyRate is annualRatePercent/100/12, unrounded.
func (t Terms) MonthlyRate() decimal.Decimal {
	return t.AnnualRatePercent.DivRound(hundred, internalPlaces).DivRound(twelve, internalPlaces)
}

// Calculate returns the monthly payment and totals for the terms.
func Calculate(t Terms) (Quote, error) {
	q, _, err := amortize(t)
	return q, err
}

// exactPayment is M = P*r / (1 - (1+r)^-n), or P/n when r is zero.
// Rewritten as P*r*f / (f-1) with f = (1+r)^n to avoid a negative power.
func exactPayment(principal, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(n)), internalPlaces)
	}
	f := powInt(decimal.NewFromInt(1).Add(r), n)
	return principal.Mul(r).Mul(f).DivRound(f.Sub(decimal.NewFromInt(1)), internalPlaces)
}

// powInt raises base to a non-negative integer power by repeated squaring,
// rounding intermediates to internalPlaces.
func powInt(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(internalPlaces)
		}
		base = base.Mul(base).Round(internalPlaces)
		exp >>= 1
	}
	return result
}

// RoundCents rounds a money amount to whole cents.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPlaces)
}
