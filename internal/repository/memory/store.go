// Package memory is an in-process implementation of the repository ports.
//
// A Store serialises whole units of work behind one mutex and applies a unit's
// writes only when it returns without error, which gives the same atomicity and
// exclusive-lock guarantees as the Postgres adapter at a much coarser grain.
// It backs the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/repository"
	"github.com/segyhp/lending-core/pkg/utils"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	clients      map[uuid.UUID]domain.Client
	loans        map[uuid.UUID]domain.Loan
	installments map[uuid.UUID]domain.Installment
	payments     map[uuid.UUID]domain.Payment
	references   map[string]uuid.UUID
	audit        []domain.AuditEvent
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func newState() *state {
	return &state{
		clients:      make(map[uuid.UUID]domain.Client),
		loans:        make(map[uuid.UUID]domain.Loan),
		installments: make(map[uuid.UUID]domain.Installment),
		payments:     make(map[uuid.UUID]domain.Payment),
		references:   make(map[string]uuid.UUID),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.installments {
		c.installments[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.references {
		c.references[k] = v
	}
	c.audit = append([]domain.AuditEvent(nil), s.audit...)
	return c
}

func (s *state) repositories() repository.Repositories {
	return repository.Repositories{
		Clients:      &clientRepository{st: s},
		Loans:        &loanRepository{st: s},
		Installments: &installmentRepository{st: s},
		Payments:     &paymentRepository{st: s},
		Audit:        &auditRepository{st: s},
		Stats:        &statsRepository{st: s},
	}
}

// Do implements repository.UnitOfWork.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.state.clone()
	if err := fn(ctx, staged.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = staged
	return nil
}

// SeedClient stores a client, standing in for the profile subsystem.
func (s *Store) SeedClient(client domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.clients[client.ID] = client
}

// SeedLoan stores a loan as-is, in whatever status it carries.
func (s *Store) SeedLoan(loan *domain.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.loans[loan.ID] = *loan
}

// SeedInstallments stores installments as-is.
func (s *Store) SeedInstallments(installments ...*domain.Installment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range installments {
		s.state.installments[inst.ID] = *inst
	}
}

func (s *Store) Loan(id uuid.UUID) (*domain.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.state.loans[id]
	return &loan, ok
}

func (s *Store) Installment(id uuid.UUID) (*domain.Installment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.state.installments[id]
	return &inst, ok
}

func (s *Store) Installments(loanID uuid.UUID) []*domain.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.installmentsOf(loanID)
}

// Payments returns every recorded payment ordered by paid-at time.
func (s *Store) Payments() []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := make([]domain.Payment, 0, len(s.state.payments))
	for _, p := range s.state.payments {
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].PaidAt.Before(payments[j].PaidAt) })
	return payments
}

// AuditEvents returns the audit trail in append order.
func (s *Store) AuditEvents() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.state.audit...)
}

func (s *state) installmentsOf(loanID uuid.UUID) []*domain.Installment {
	var out []*domain.Installment
	for _, inst := range s.installments {
		if inst.LoanID == loanID {
			inst := inst
			out = append(out, &inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *state) overdue(asOf time.Time) []*domain.Installment {
	var out []*domain.Installment
	for _, inst := range s.installments {
		if inst.Status() == domain.InstallmentStatusPending && utils.IsDateOverdue(inst.DueDate, asOf) {
			inst := inst
			out = append(out, &inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Number < out[j].Number
	})
	return out
}
