package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "homeloan/pkg/domain-errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculate(t *testing.T) {
	t.Run("ten million at twelve percent over twenty years", func(t *testing.T) {
		q, err := Calculate(Terms{Principal: dec("10000000"), AnnualRatePercent: dec("12"), TermYears: 20})
		require.NoError(t, err)
		assert.Equal(t, 240, q.TotalPayments)
		assert.Equal(t, "110108.61", q.MonthlyPayment.StringFixed(2))
		assert.Equal(t, "26426069.94", q.TotalPayable.StringFixed(2))
		assert.Equal(t, "16426069.94", q.TotalInterest.StringFixed(2))
	})

	t.Run("zero rate is straight line", func(t *testing.T) {
		q, err := Calculate(Terms{Principal: dec("120000"), AnnualRatePercent: decimal.Zero, TermYears: 10})
		require.NoError(t, err)
		assert.Equal(t, "1000.00", q.MonthlyPayment.StringFixed(2))
		assert.Equal(t, "120000.00", q.TotalPayable.StringFixed(2))
		assert.True(t, q.TotalInterest.IsZero())
	})

	t.Run("rejects out of bounds terms", func(t *testing.T) {
		cases := []Terms{
			{Principal: decimal.Zero, AnnualRatePercent: dec("5"), TermYears: 10},
			{Principal: dec("-1"), AnnualRatePercent: dec("5"), TermYears: 10},
			{Principal: dec("1000"), AnnualRatePercent: dec("-0.1"), TermYears: 10},
			{Principal: dec("1000"), AnnualRatePercent: dec("5"), TermYears: 0},
			{Principal: dec("1000"), AnnualRatePercent: dec("5"), TermYears: 31},
			{Principal: dec("2.52"), AnnualRatePercent: decimal.Zero, TermYears: 24},
		}
		for _, tc := range cases {
			_, err := Calculate(tc)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestSchedule(t *testing.T) {
	start := time.Date(2024, 1, 31, 10, 30, 0, 0, time.UTC)

	t.Run("amounts sum to total payable and final period absorbs rounding", func(t *testing.T) {
		terms := Terms{Principal: dec("10000000"), AnnualRatePercent: dec("12"), TermYears: 20}
		q, entries, err := Schedule(terms, start)
		require.NoError(t, err)
		require.Len(t, entries, 240)

		sumDue, sumPrincipal := decimal.Zero, decimal.Zero
		for i, e := range entries {
			assert.Equal(t, i+1, e.PaymentNumber)
			assert.True(t, e.AmountDue.Equal(e.Principal.Add(e.Interest)), "period %d splits exactly", e.PaymentNumber)
			if i < len(entries)-1 {
				assert.True(t, e.AmountDue.Equal(q.MonthlyPayment))
			}
			sumDue = sumDue.Add(e.AmountDue)
			sumPrincipal = sumPrincipal.Add(e.Principal)
		}
		assert.Equal(t, q.TotalPayable.StringFixed(2), sumDue.StringFixed(2))
		assert.Equal(t, "10000000.00", sumPrincipal.StringFixed(2))
		assert.Equal(t, "110112.15", entries[239].AmountDue.StringFixed(2))
		assert.Equal(t, "1090.22", entries[239].Interest.StringFixed(2))
		assert.True(t, entries[239].BalanceAfter.IsZero())
	})

	t.Run("interest shrinks over the life of the loan", func(t *testing.T) {
		_, entries, err := Schedule(Terms{Principal: dec("200000"), AnnualRatePercent: dec("6.5"), TermYears: 30}, start)
		require.NoError(t, err)
		assert.Equal(t, "1083.33", entries[0].Interest.StringFixed(2))
		assert.True(t, entries[0].Interest.GreaterThan(entries[100].Interest))
		assert.True(t, entries[0].Principal.LessThan(entries[100].Principal))
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].BalanceAfter.GreaterThan(entries[i-1].BalanceAfter))
		}
	})

	t.Run("zero rate final period takes the remainder", func(t *testing.T) {
		q, entries, err := Schedule(Terms{Principal: dec("1000"), AnnualRatePercent: decimal.Zero, TermYears: 1}, start)
		require.NoError(t, err)
		assert.Equal(t, "83.33", q.MonthlyPayment.StringFixed(2))
		assert.Equal(t, "83.37", entries[11].AmountDue.StringFixed(2))
		for _, e := range entries {
			assert.True(t, e.Interest.IsZero())
		}
		assert.True(t, entries[11].BalanceAfter.IsZero())
	})

	t.Run("high rate keeps the final split positive", func(t *testing.T) {
		q, entries, err := Schedule(Terms{Principal: dec("299782.74"), AnnualRatePercent: dec("28.77"), TermYears: 30}, start)
		require.NoError(t, err)
		assert.Equal(t, "7188.71", q.MonthlyPayment.StringFixed(2))
		last := entries[359]
		assert.Equal(t, "7387.51", last.Principal.StringFixed(2))
		assert.Equal(t, "177.12", last.Interest.StringFixed(2))
		assert.Equal(t, "7564.63", last.AmountDue.StringFixed(2))
	})

	t.Run("payment moves a cent when the nearest cent retires the loan early", func(t *testing.T) {
		q, entries, err := Schedule(Terms{Principal: dec("5884.98"), AnnualRatePercent: dec("29.51"), TermYears: 26}, start)
		require.NoError(t, err)
		assert.Equal(t, "144.79", q.MonthlyPayment.StringFixed(2))
		assert.Equal(t, "547.36", entries[len(entries)-1].AmountDue.StringFixed(2))
	})

	t.Run("due dates clamp to month end", func(t *testing.T) {
		_, entries, err := Schedule(Terms{Principal: dec("1000"), AnnualRatePercent: dec("3"), TermYears: 1}, start)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 10, 30, 0, 0, time.UTC), entries[0].DueDate)
		assert.Equal(t, time.Date(2024, 3, 31, 10, 30, 0, 0, time.UTC), entries[1].DueDate)
		assert.Equal(t, time.Date(2024, 4, 30, 10, 30, 0, 0, time.UTC), entries[2].DueDate)
		assert.Equal(t, time.Date(2025, 1, 31, 10, 30, 0, 0, time.UTC), entries[11].DueDate)
	})

	t.Run("deterministic for equal inputs", func(t *testing.T) {
		terms := Terms{Principal: dec("250000"), AnnualRatePercent: dec("5"), TermYears: 15}
		_, a, err := Schedule(terms, start)
		require.NoError(t, err)
		_, b, err := Schedule(terms, start)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		from time.Time
		k    int
		want time.Time
	}{
		{time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 8, 30, 0, 0, 0, 0, time.UTC), 12, time.Date(2024, 8, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AddMonths(tc.from, tc.k))
	}
}
