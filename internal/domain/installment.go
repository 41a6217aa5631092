package domain

import (
	"fmt"
	"time"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusLate    InstallmentStatus = "late"
)

// Installment represents one scheduled monthly obligation of an approved loan.
type Installment struct {
	ID      uuid.UUID
	LoanID  uuid.UUID
	Number  int
	DueDate time.Time
	Amount  Money

	status InstallmentStatus
}

func NewInstallment(id, loanID uuid.UUID, number int, dueDate time.Time, amount Money) *Installment {
	return &Installment{
		ID:      id,
		LoanID:  loanID,
		Number:  number,
		DueDate: dueDate,
		Amount:  amount,
		status:  InstallmentStatusPending,
	}
}

func RestoreInstallment(id, loanID uuid.UUID, number int, dueDate time.Time, amount Money, status InstallmentStatus) *Installment {
	return &Installment{
		ID:      id,
		LoanID:  loanID,
		Number:  number,
		DueDate: dueDate,
		Amount:  amount,
		status:  status,
	}
}

func (i *Installment) Status() InstallmentStatus { return i.status }

func (i *Installment) IsPaid() bool { return i.status == InstallmentStatusPaid }

// IsOutstanding is true for pending and late installments.
func (i *Installment) IsOutstanding() bool {
	return i.status == InstallmentStatusPending || i.status == InstallmentStatusLate
}

// MarkPaid settles the installment. Paid is terminal.
func (i *Installment) MarkPaid() error {
	if i.status == InstallmentStatusPaid {
		return customError.WrapInstallmentAlreadyPaid(i.ID.String())
	}
	i.status = InstallmentStatusPaid
	return nil
}

// MarkLate flags a pending installment as overdue.
func (i *Installment) MarkLate() error {
	if i.status != InstallmentStatusPending {
		return customError.NewBusinessRuleViolation(
			customError.ErrCodeInstallmentNotPending,
			fmt.Sprintf("Installment with ID %s is %s, expected pending", i.ID, i.status),
		)
	}
	i.status = InstallmentStatusLate
	return nil
}

// BuildSchedule lays out termMonths equal installments for an approved loan,
// the k-th due k calendar months after start.
func BuildSchedule(loan *Loan, start time.Time) ([]*Installment, error) {
	payment, err := loan.MonthlyPayment()
	if err != nil {
		return nil, err
	}

	schedule := make([]*Installment, 0, loan.TermMonths)
	for number := 1; number <= loan.TermMonths; number++ {
		dueDate := start.AddDate(0, number, 0)
		schedule = append(schedule, NewInstallment(uuid.New(), loan.ID, number, dueDate, payment))
	}
	return schedule, nil
}
