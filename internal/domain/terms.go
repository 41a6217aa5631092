package domain

import (
	"fmt"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/shopspring/decimal"
)

// Loan term bounds. They match the loans table: principal numeric(12,2) and
// monthly_rate numeric(7,6).
const (
	MinTermMonths = 1
	MaxTermMonths = 600

	MaxRatePlaces = 6

	// powerPlaces is the working precision of (1+r)^n.
	powerPlaces = 28
)

var (
	// MaxPrincipal is the largest principal numeric(12,2) holds.
	MaxPrincipal = decimal.RequireFromString("9999999999.99")

	// maxRate is the exclusive upper bound numeric(7,6) allows.
	maxRate = decimal.NewFromInt(10)
)

// ValidateTerms checks the terms of a loan before any amortization is done:
// a positive principal that fits the ledger, a storable rate and a term of
// MinTermMonths to MaxTermMonths.
func ValidateTerms(principal Money, rate Rate, termMonths int) error {
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return invalidTerm(termMonths)
	}
	if !principal.Amount().IsPositive() {
		return customError.NewValidationError(
			customError.ErrCodeInvalidAmount,
			fmt.Sprintf("principal %s must be greater than zero", principal),
		)
	}
	if principal.Amount().GreaterThan(MaxPrincipal) {
		return customError.NewValidationError(
			customError.ErrCodeInvalidAmount,
			fmt.Sprintf("principal %s exceeds the maximum of %s", principal, MaxPrincipal.StringFixed(MoneyScale)),
		)
	}
	return validateRate(rate.Monthly())
}

func validateRate(monthly decimal.Decimal) error {
	if monthly.IsNegative() {
		return customError.NewValidationError(
			customError.ErrCodeInvalidRate,
			fmt.Sprintf("monthly rate %s must not be negative", monthly.String()),
		)
	}
	if !monthly.Equal(monthly.Truncate(MaxRatePlaces)) {
		return customError.NewValidationError(
			customError.ErrCodeInvalidRate,
			fmt.Sprintf("monthly rate %s has more than %d decimal places", monthly.String(), MaxRatePlaces),
		)
	}
	if monthly.GreaterThanOrEqual(maxRate) {
		return customError.NewValidationError(
			customError.ErrCodeInvalidRate,
			fmt.Sprintf("monthly rate %s must be below %s", monthly.String(), maxRate.String()),
		)
	}
	return nil
}
