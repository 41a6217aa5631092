package repository

import (
	"context"
	"time"

	"github.com/segyhp/lending-core/internal/domain"

	"github.com/google/uuid"
)

// ClientRepository defines read access to clients owned by the profile subsystem
type ClientRepository interface {
	// Get retrieves a client, failing with a not found error when absent
	Get(ctx context.Context, clientID uuid.UUID) (*domain.Client, error)

	// HasActiveDebt reports whether the client has an approved loan with a pending or late installment
	HasActiveDebt(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)

	// Get retrieves a loan by ID
	Get(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// GetForUpdate retrieves a loan and locks it until the unit of work ends
	GetForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// Save persists the loan status
	Save(ctx context.Context, loan *domain.Loan) error

	// ListApprovedUnscheduled lists approved loans that have no installments yet
	ListApprovedUnscheduled(ctx context.Context) ([]*domain.Loan, error)

	// List retrieves every loan, newest first
	List(ctx context.Context) ([]*domain.Loan, error)
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// ListByLoan retrieves installments of a loan ordered by number
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)

	// GetForUpdate retrieves an installment under an exclusive lock held until the unit of work ends
	GetForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error)

	// Save persists the installment status
	Save(ctx context.Context, installment *domain.Installment) error

	// CreateSchedule inserts the installments of a loan
	CreateSchedule(ctx context.Context, installments []*domain.Installment) error

	// ListOverdue retrieves pending installments due before asOf, locked for update
	ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// ExistsByReference reports whether a payment with this reference was recorded
	ExistsByReference(ctx context.Context, reference string) (bool, error)

	// Create records a payment; a duplicate reference fails with a conflict error
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
}

// AuditRepository appends audit events
type AuditRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

// StatsRepository aggregates the portfolio for reporting
type StatsRepository interface {
	// Portfolio counts and sums every table; installments pending and due before asOf are overdue
	Portfolio(ctx context.Context, asOf time.Time) (*domain.PortfolioStats, error)
}

// Repositories groups the ports bound to one unit of work.
type Repositories struct {
	Clients      ClientRepository
	Loans        LoanRepository
	Installments InstallmentRepository
	Payments     PaymentRepository
	Audit        AuditRepository
	Stats        StatsRepository
}

// UnitOfWork runs fn atomically. If fn returns an error nothing it wrote is
// kept, and locks taken through the repositories are released on every path.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
