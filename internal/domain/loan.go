package domain

import (
	"time"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusCancelled LoanStatus = "cancelled"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusCancelled:
		return true
	}
	return false
}

// Loan represents a loan entity. Status only changes through Approve and Reject.
type Loan struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	Principal  Money
	Rate       Rate
	TermMonths int
	CreatedAt  time.Time

	status LoanStatus
}

// NewLoan builds a pending loan and validates its terms.
func NewLoan(id, clientID uuid.UUID, principal Money, rate Rate, termMonths int, createdAt time.Time) (*Loan, error) {
	loan := &Loan{
		ID:         id,
		ClientID:   clientID,
		Principal:  principal,
		Rate:       rate,
		TermMonths: termMonths,
		CreatedAt:  createdAt,
		status:     LoanStatusPending,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	return loan, nil
}

// RestoreLoan rebuilds a persisted loan in whatever status it was stored with.
func RestoreLoan(id, clientID uuid.UUID, principal Money, rate Rate, termMonths int, status LoanStatus, createdAt time.Time) *Loan {
	return &Loan{
		ID:         id,
		ClientID:   clientID,
		Principal:  principal,
		Rate:       rate,
		TermMonths: termMonths,
		CreatedAt:  createdAt,
		status:     status,
	}
}

func (l *Loan) Status() LoanStatus { return l.status }

func (l *Loan) Validate() error {
	return ValidateTerms(l.Principal, l.Rate, l.TermMonths)
}

// MonthlyPayment is the annuity payment for this loan's terms.
func (l *Loan) MonthlyPayment() (Money, error) {
	return CalculateMonthlyPayment(l.Principal, l.Rate, l.TermMonths)
}

func (l *Loan) Approve() error {
	if err := l.requirePending(); err != nil {
		return err
	}
	l.status = LoanStatusApproved
	return nil
}

func (l *Loan) Reject() error {
	if err := l.requirePending(); err != nil {
		return err
	}
	l.status = LoanStatusRejected
	return nil
}

func (l *Loan) requirePending() error {
	if l.status != LoanStatusPending {
		return customError.WrapLoanNotPending(l.ID.String(), string(l.status))
	}
	return nil
}
