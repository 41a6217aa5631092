package domain

import (
	"errors"
	"testing"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRate(t *testing.T, s string) Rate {
	t.Helper()
	r, err := NewRate(decimal.RequireFromString(s))
	require.NoError(t, err)
	return r
}

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		expected  string
	}{
		{name: "reference loan", principal: "1000.00", rate: "0.03", months: 12, expected: "100.46"},
		{name: "lower rate", principal: "1000.00", rate: "0.01", months: 12, expected: "88.85"},
		{name: "two year loan", principal: "5000.00", rate: "0.02", months: 24, expected: "264.36"},
		{name: "three year loan", principal: "10000.00", rate: "0.015", months: 36, expected: "361.52"},
		{name: "short loan", principal: "500.00", rate: "0.04", months: 6, expected: "95.38"},
		{name: "zero rate divides evenly", principal: "1200.00", rate: "0", months: 12, expected: "100.00"},
		{name: "zero rate rounds to the cent", principal: "100.00", rate: "0", months: 3, expected: "33.33"},
		{name: "zero rate rounds half up", principal: "1000.00", rate: "0", months: 12, expected: "83.33"},
		{name: "single month zero rate", principal: "250.50", rate: "0", months: 1, expected: "250.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := MustMoney(tt.principal, "USD")

			result, err := CalculateMonthlyPayment(principal, mustRate(t, tt.rate), tt.months)

			require.NoError(t, err)
			assert.True(t, result.Amount().Equal(decimal.RequireFromString(tt.expected)),
				"Expected %v, but got %v", tt.expected, result.Amount())
			assert.Equal(t, "USD", result.Currency())
		})
	}
}

func TestCalculateMonthlyPayment_InvalidTerm(t *testing.T) {
	for _, months := range []int{0, -1, -12} {
		_, err := CalculateMonthlyPayment(MustMoney("1000", "USD"), mustRate(t, "0.03"), months)
		assert.True(t, errors.Is(err, customError.ErrValidation))
		assert.Equal(t, customError.ErrCodeInvalidTerm, customError.CodeOf(err))
	}
}

func TestCalculateMonthlyPayment_IsDeterministic(t *testing.T) {
	principal := MustMoney("7350.25", "EUR")
	rate := mustRate(t, "0.0175")

	first, err := CalculateMonthlyPayment(principal, rate, 48)
	require.NoError(t, err)
	second, err := CalculateMonthlyPayment(principal, rate, 48)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestCalculateQuote(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		monthly   string
		total     string
		interest  string
	}{
		{name: "reference loan", principal: "1000.00", rate: "0.03", months: 12, monthly: "100.46", total: "1205.52", interest: "205.52"},
		{name: "two year loan", principal: "5000.00", rate: "0.02", months: 24, monthly: "264.36", total: "6344.64", interest: "1344.64"},
		{name: "zero rate can undershoot the principal", principal: "100.00", rate: "0", months: 3, monthly: "33.33", total: "99.99", interest: "-0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := MustMoney(tt.principal, "USD")

			quote, err := CalculateQuote(principal, mustRate(t, tt.rate), tt.months)

			require.NoError(t, err)
			assert.True(t, quote.MonthlyPayment.Amount().Equal(decimal.RequireFromString(tt.monthly)))
			assert.True(t, quote.TotalPayment.Equal(decimal.RequireFromString(tt.total)))
			assert.True(t, quote.TotalInterest.Equal(decimal.RequireFromString(tt.interest)))

			// totals are reproducible from the monthly payment alone
			recomputed := quote.MonthlyPayment.Amount().Mul(decimal.NewFromInt(int64(tt.months))).Round(2)
			assert.True(t, recomputed.Equal(quote.TotalPayment))
			assert.True(t, quote.TotalPayment.Sub(principal.Amount()).Equal(quote.TotalInterest))
		})
	}
}
