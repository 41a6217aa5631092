package domain

import (
	"fmt"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every monetary amount carries.
const MoneyScale = 2

// Money is a non-negative amount in a three-letter currency, always rounded
// half-up to the cent. The zero value is not a valid Money; use NewMoney.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// QuantizeMoney rounds value half-up to MoneyScale places. Callers only pass
// non-negative values in practice, where decimal's half-away-from-zero
// rounding is half-up.
func QuantizeMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(MoneyScale)
}

// NewMoney validates and quantizes amount.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, customError.NewValidationError(
			customError.ErrCodeInvalidAmount,
			fmt.Sprintf("amount %s must not be negative", amount.String()),
		)
	}
	if len(currency) != 3 {
		return Money{}, customError.NewValidationError(
			customError.ErrCodeInvalidCurrency,
			fmt.Sprintf("currency %q must be a three-letter code", currency),
		)
	}

	return Money{amount: QuantizeMoney(amount), currency: currency}, nil
}

// NewMoneyFromString parses amount before validating it. Text that is not a
// number (including "NaN") is a validation error.
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, customError.NewValidationError(
			customError.ErrCodeInvalidAmount,
			fmt.Sprintf("amount %q is not a number", amount),
		)
	}
	return NewMoney(d, currency)
}

// MustMoney is NewMoney for literals known to be valid. It panics otherwise.
func MustMoney(amount, currency string) Money {
	m, err := NewMoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() string { return m.currency }

func (m Money) IsZero() bool { return m.currency == "" }

func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale) + " " + m.currency
}

// Add returns m + other. Both must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// Sub returns m - other. Both must share a currency and the result must not
// be negative.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	if m.amount.LessThan(other.amount) {
		return Money{}, customError.NewValidationError(
			customError.ErrCodeInsufficientBalance,
			fmt.Sprintf("cannot subtract %s from %s", other, m),
		)
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency)
}

// Equal reports whether amount and currency are identical.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan compares amounts of the same currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return customError.WrapCurrencyMismatch(m.currency, other.currency)
	}
	return nil
}

// Rate is a non-negative monthly periodic rate, e.g. 0.03 for 3% a month.
type Rate struct {
	monthly decimal.Decimal
}

// NewRate accepts a rate below 10 with at most MaxRatePlaces decimals.
func NewRate(monthly decimal.Decimal) (Rate, error) {
	if err := validateRate(monthly); err != nil {
		return Rate{}, err
	}
	return Rate{monthly: monthly}, nil
}

func (r Rate) Monthly() decimal.Decimal { return r.monthly }

func (r Rate) IsZero() bool { return r.monthly.IsZero() }
