package service

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/metrics"
	"github.com/segyhp/lending-core/internal/repository"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LoanService struct {
	uow       repository.UnitOfWork
	clock     Clock
	publisher EventPublisher
	log       *logrus.Logger
}

func NewLoanService(
	uow repository.UnitOfWork,
	clock Clock,
	publisher EventPublisher,
	log *logrus.Logger,
) *LoanService {
	return &LoanService{
		uow:       uow,
		clock:     clock,
		publisher: publisher,
		log:       log,
	}
}

// CreateLoan records a pending loan for a client whose payment capacity covers
// the monthly payment.
func (s *LoanService) CreateLoan(ctx context.Context, actor Actor, cmd CreateLoanCommand) (result *CreateLoanResult, err error) {
	fields := logrus.Fields{"client_id": cmd.ClientID}
	defer func() { observe(s.log, "create_loan", err, fields) }()

	if err = authorize(actor, staffRoles...); err != nil {
		return nil, err
	}

	var event domain.AuditEvent
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		client, err := repos.Clients.Get(ctx, cmd.ClientID)
		if err != nil {
			return err
		}

		principal, err := domain.NewMoney(cmd.PrincipalAmount, cmd.Currency)
		if err != nil {
			return err
		}
		rate, err := domain.NewRate(cmd.MonthlyRate)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		loan, err := domain.NewLoan(uuid.New(), client.ID, principal, rate, cmd.TermMonths, now)
		if err != nil {
			return err
		}

		payment, err := loan.MonthlyPayment()
		if err != nil {
			return err
		}
		exceeds, err := payment.GreaterThan(client.MonthlyCapacity)
		if err != nil {
			return err
		}
		if exceeds {
			return customError.WrapCapacityExceeded(payment.String(), client.MonthlyCapacity.String())
		}

		created, err := repos.Loans.Create(ctx, loan)
		if err != nil {
			return err
		}

		event = domain.NewAuditEvent(actor.UserID, domain.AuditLoanCreated, now,
			map[string]any{
				"loan_id": created.ID.String(),
				"status":  string(created.Status()),
			},
			map[string]any{"client_id": client.ID.String()},
		)
		if err := repos.Audit.Append(ctx, event); err != nil {
			return err
		}

		result = &CreateLoanResult{LoanID: created.ID, MonthlyPayment: payment.Amount()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["loan_id"] = result.LoanID
	publish(ctx, s.publisher, s.log, event)
	return result, nil
}

// ListLoans returns every loan, newest first.
func (s *LoanService) ListLoans(ctx context.Context, actor Actor) (loans []*domain.Loan, err error) {
	defer func() { observe(s.log, "list_loans", err, logrus.Fields{"count": len(loans)}) }()

	if err = authorize(actor, staffRoles...); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		list, err := repos.Loans.List(ctx)
		if err != nil {
			return err
		}
		loans = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// QuoteLoan prices a loan without persisting anything.
func (s *LoanService) QuoteLoan(cmd QuoteLoanCommand) (result *QuoteLoanResult, err error) {
	defer func() { observe(s.log, "quote_loan", err, nil) }()

	principal, err := domain.NewMoney(cmd.PrincipalAmount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	rate, err := domain.NewRate(cmd.MonthlyRate)
	if err != nil {
		return nil, err
	}

	quote, err := domain.CalculateQuote(principal, rate, cmd.TermMonths)
	if err != nil {
		return nil, err
	}

	return &QuoteLoanResult{
		MonthlyPayment: quote.MonthlyPayment.Amount(),
		TotalPayment:   quote.TotalPayment,
		TotalInterest:  quote.TotalInterest,
	}, nil
}

// DecideLoan approves or rejects a pending loan. Approval re-checks the
// client's standing: not delinquent, capacity still sufficient, no active debt.
func (s *LoanService) DecideLoan(ctx context.Context, actor Actor, cmd DecideLoanCommand) (err error) {
	fields := logrus.Fields{"loan_id": cmd.LoanID, "approve": cmd.Approve}
	defer func() { observe(s.log, "decide_loan", err, fields) }()

	if err = authorize(actor, staffRoles...); err != nil {
		return err
	}

	var event domain.AuditEvent
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, err := repos.Loans.GetForUpdate(ctx, cmd.LoanID)
		if err != nil {
			return err
		}
		client, err := repos.Clients.Get(ctx, loan.ClientID)
		if err != nil {
			return err
		}

		action := domain.AuditLoanRejected
		if cmd.Approve {
			if err := s.checkEligibility(ctx, repos, loan, client); err != nil {
				return err
			}
			if err := loan.Approve(); err != nil {
				return err
			}
			action = domain.AuditLoanApproved
		} else if err := loan.Reject(); err != nil {
			return err
		}

		if err := repos.Loans.Save(ctx, loan); err != nil {
			return err
		}

		var reason any
		if cmd.Reason != nil {
			reason = *cmd.Reason
		}
		event = domain.NewAuditEvent(actor.UserID, action, s.clock.Now(),
			map[string]any{
				"loan_id": loan.ID.String(),
				"status":  string(loan.Status()),
				"reason":  reason,
			},
			map[string]any{"client_id": client.ID.String()},
		)
		return repos.Audit.Append(ctx, event)
	})
	if err != nil {
		return err
	}

	decision := string(domain.LoanStatusRejected)
	if cmd.Approve {
		decision = string(domain.LoanStatusApproved)
	}
	metrics.LoansDecidedTotal.WithLabelValues(decision).Inc()
	publish(ctx, s.publisher, s.log, event)
	return nil
}

func (s *LoanService) checkEligibility(ctx context.Context, repos repository.Repositories, loan *domain.Loan, client *domain.Client) error {
	if client.IsDelinquent {
		return customError.WrapClientDelinquent(client.ID.String())
	}

	payment, err := loan.MonthlyPayment()
	if err != nil {
		return err
	}
	exceeds, err := payment.GreaterThan(client.MonthlyCapacity)
	if err != nil {
		return err
	}
	if exceeds {
		return customError.WrapCapacityExceeded(payment.String(), client.MonthlyCapacity.String())
	}

	hasDebt, err := repos.Clients.HasActiveDebt(ctx, client.ID)
	if err != nil {
		return err
	}
	if hasDebt {
		return customError.WrapClientActiveDebt(client.ID.String())
	}
	return nil
}
