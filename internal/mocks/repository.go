package mocks

import (
	"context"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork runs fn against Repos. The error configured for "Do" is
// returned only when fn succeeds, simulating a failed commit.
type MockUnitOfWork struct {
	mock.Mock
	Repos repository.Repositories
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	args := m.Called(ctx)
	if err := fn(ctx, m.Repos); err != nil {
		return err
	}
	return args.Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Get(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) HasActiveDebt(ctx context.Context, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	args := m.Called(ctx, loan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Get(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Save(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) ListApprovedUnscheduled(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) GetForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) Save(ctx context.Context, installment *domain.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockInstallmentRepository) CreateSchedule(ctx context.Context, installments []*domain.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, event domain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Portfolio(ctx context.Context, asOf time.Time) (*domain.PortfolioStats, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioStats), args.Error(1)
}
