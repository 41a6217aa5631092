package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for use case input and output

type CreateLoanCommand struct {
	ClientID        uuid.UUID
	PrincipalAmount decimal.Decimal
	Currency        string
	MonthlyRate     decimal.Decimal
	TermMonths      int
}

type CreateLoanResult struct {
	LoanID         uuid.UUID
	MonthlyPayment decimal.Decimal
}

type QuoteLoanCommand struct {
	PrincipalAmount decimal.Decimal
	Currency        string
	MonthlyRate     decimal.Decimal
	TermMonths      int
}

type QuoteLoanResult struct {
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
}

type DecideLoanCommand struct {
	LoanID  uuid.UUID
	Approve bool
	Reason  *string
}

type RegisterPaymentCommand struct {
	InstallmentID uuid.UUID
	Reference     string
	Amount        decimal.Decimal
	Currency      string
}
