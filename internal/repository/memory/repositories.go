package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
)

type clientRepository struct {
	st *state
}

func (r *clientRepository) Get(_ context.Context, clientID uuid.UUID) (*domain.Client, error) {
	client, ok := r.st.clients[clientID]
	if !ok {
		return nil, customError.WrapClientNotFound(clientID.String())
	}
	return &client, nil
}

func (r *clientRepository) HasActiveDebt(_ context.Context, clientID uuid.UUID) (bool, error) {
	for _, loan := range r.st.loans {
		if loan.ClientID != clientID || loan.Status() != domain.LoanStatusApproved {
			continue
		}
		for _, inst := range r.st.installmentsOf(loan.ID) {
			if inst.IsOutstanding() {
				return true, nil
			}
		}
	}
	return false, nil
}

type loanRepository struct {
	st *state
}

func (r *loanRepository) Create(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if _, exists := r.st.loans[loan.ID]; exists {
		return nil, customError.WrapLoanAlreadyExists(loan.ID.String())
	}
	r.st.loans[loan.ID] = *loan
	created := *loan
	return &created, nil
}

func (r *loanRepository) Get(_ context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, ok := r.st.loans[loanID]
	if !ok {
		return nil, customError.WrapLoanNotFound(loanID.String())
	}
	return &loan, nil
}

// GetForUpdate needs no extra locking: the store already holds the unit's mutex.
func (r *loanRepository) GetForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.Get(ctx, loanID)
}

func (r *loanRepository) Save(_ context.Context, loan *domain.Loan) error {
	if _, ok := r.st.loans[loan.ID]; !ok {
		return customError.WrapLoanNotFound(loan.ID.String())
	}
	r.st.loans[loan.ID] = *loan
	return nil
}

func (r *loanRepository) ListApprovedUnscheduled(_ context.Context) ([]*domain.Loan, error) {
	scheduled := make(map[uuid.UUID]bool)
	for _, inst := range r.st.installments {
		scheduled[inst.LoanID] = true
	}

	var out []*domain.Loan
	for _, loan := range r.st.loans {
		if loan.Status() == domain.LoanStatusApproved && !scheduled[loan.ID] {
			loan := loan
			out = append(out, &loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *loanRepository) List(_ context.Context) ([]*domain.Loan, error) {
	out := make([]*domain.Loan, 0, len(r.st.loans))
	for _, loan := range r.st.loans {
		loan := loan
		out = append(out, &loan)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

type installmentRepository struct {
	st *state
}

func (r *installmentRepository) ListByLoan(_ context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	return r.st.installmentsOf(loanID), nil
}

func (r *installmentRepository) GetForUpdate(_ context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	inst, ok := r.st.installments[installmentID]
	if !ok {
		return nil, customError.WrapInstallmentNotFound(installmentID.String())
	}
	return &inst, nil
}

func (r *installmentRepository) Save(_ context.Context, installment *domain.Installment) error {
	if _, ok := r.st.installments[installment.ID]; !ok {
		return customError.WrapInstallmentNotFound(installment.ID.String())
	}
	r.st.installments[installment.ID] = *installment
	return nil
}

func (r *installmentRepository) CreateSchedule(_ context.Context, installments []*domain.Installment) error {
	for _, inst := range installments {
		for _, existing := range r.st.installments {
			if existing.LoanID == inst.LoanID && existing.Number == inst.Number {
				return customError.NewConflict(
					customError.ErrCodeScheduleExists,
					fmt.Sprintf("installment %d of loan %s already exists", inst.Number, inst.LoanID),
				)
			}
		}
		r.st.installments[inst.ID] = *inst
	}
	return nil
}

func (r *installmentRepository) ListOverdue(_ context.Context, asOf time.Time) ([]*domain.Installment, error) {
	return r.st.overdue(asOf), nil
}

type paymentRepository struct {
	st *state
}

func (r *paymentRepository) ExistsByReference(_ context.Context, reference string) (bool, error) {
	_, ok := r.st.references[reference]
	return ok, nil
}

func (r *paymentRepository) Create(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if _, ok := r.st.references[payment.Reference]; ok {
		return nil, customError.WrapDuplicatePaymentReference(payment.Reference)
	}
	r.st.payments[payment.ID] = *payment
	r.st.references[payment.Reference] = payment.ID
	created := *payment
	return &created, nil
}

type auditRepository struct {
	st *state
}

func (r *auditRepository) Append(_ context.Context, event domain.AuditEvent) error {
	r.st.audit = append(r.st.audit, event)
	return nil
}

type statsRepository struct {
	st *state
}

func (r *statsRepository) Portfolio(_ context.Context, asOf time.Time) (*domain.PortfolioStats, error) {
	stats := domain.NewPortfolioStats()

	for _, client := range r.st.clients {
		stats.Clients++
		if client.Status == domain.ClientStatusActive {
			stats.ActiveClients++
		}
		if client.IsDelinquent {
			stats.DelinquentClients++
		}
	}

	loansPerClient := make(map[uuid.UUID]int)
	for _, loan := range r.st.loans {
		stats.Loans++
		stats.LoansByStatus[loan.Status()]++
		currency := loan.Principal.Currency()
		stats.LoansByCurrency[currency]++
		stats.PrincipalByCurrency[currency] = stats.PrincipalByCurrency[currency].Add(loan.Principal.Amount())
		loansPerClient[loan.ClientID]++
	}
	for _, n := range loansPerClient {
		if n > 1 {
			stats.ClientsWithMultipleLoans++
		}
	}

	for _, inst := range r.st.installments {
		stats.Installments++
		stats.InstallmentsByStatus[inst.Status()]++
	}
	stats.OverdueInstallments = len(r.st.overdue(asOf))

	for _, payment := range r.st.payments {
		stats.Payments++
		currency := payment.Amount.Currency()
		stats.PaidByCurrency[currency] = stats.PaidByCurrency[currency].Add(payment.Amount.Amount())
	}

	return stats, nil
}
