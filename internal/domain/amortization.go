package domain

import (
	"fmt"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/shopspring/decimal"
)

// CalculateMonthlyPayment returns the fixed French (annuity) instalment for
// principal at the given monthly rate over termMonths:
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// With a zero rate the payment is P / n. The result is rounded half-up to the cent.
func CalculateMonthlyPayment(principal Money, rate Rate, termMonths int) (Money, error) {
	if err := ValidateTerms(principal, rate, termMonths); err != nil {
		return Money{}, err
	}

	n := decimal.NewFromInt(int64(termMonths))
	r := rate.Monthly()
	if r.IsZero() {
		return NewMoney(principal.Amount().Div(n), principal.Currency())
	}

	factor := compound(r, termMonths)
	payment := principal.Amount().Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))

	return NewMoney(payment, principal.Currency())
}

// compound returns (1+r)^n, rounding every partial product to powerPlaces so
// the operands stay bounded whatever the term.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(r)
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(base).Round(powerPlaces)
	}
	return result
}

// Quote summarises the cost of a loan with a fixed monthly payment.
type Quote struct {
	MonthlyPayment Money
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
}

// CalculateQuote derives total payment (monthly x term) and total interest
// (total - principal) from the rounded monthly payment. Totals are plain
// decimals: rounding the monthly payment can leave the total a cent or two
// below the principal at a zero rate.
func CalculateQuote(principal Money, rate Rate, termMonths int) (Quote, error) {
	monthly, err := CalculateMonthlyPayment(principal, rate, termMonths)
	if err != nil {
		return Quote{}, err
	}

	total := QuantizeMoney(monthly.Amount().Mul(decimal.NewFromInt(int64(termMonths))))
	interest := QuantizeMoney(total.Sub(principal.Amount()))

	return Quote{
		MonthlyPayment: monthly,
		TotalPayment:   total,
		TotalInterest:  interest,
	}, nil
}

func invalidTerm(termMonths int) error {
	return customError.NewValidationError(
		customError.ErrCodeInvalidTerm,
		fmt.Sprintf("term of %d months must be between %d and %d", termMonths, MinTermMonths, MaxTermMonths),
	)
}
