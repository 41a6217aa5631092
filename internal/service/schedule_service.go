package service

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/metrics"
	"github.com/segyhp/lending-core/internal/repository"
	customError "github.com/segyhp/lending-core/pkg/errors"
	"github.com/segyhp/lending-core/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ScheduleService runs the background jobs that follow a loan after approval:
// laying out its installments and flagging the ones past due.
type ScheduleService struct {
	uow       repository.UnitOfWork
	clock     Clock
	publisher EventPublisher
	log       *logrus.Logger
}

func NewScheduleService(
	uow repository.UnitOfWork,
	clock Clock,
	publisher EventPublisher,
	log *logrus.Logger,
) *ScheduleService {
	return &ScheduleService{
		uow:       uow,
		clock:     clock,
		publisher: publisher,
		log:       log,
	}
}

// GenerateSchedules creates installments for every approved loan that has
// none. Each loan is handled in its own unit of work; a failing loan is logged
// and the rest still run. It returns the number of installments created.
func (s *ScheduleService) GenerateSchedules(ctx context.Context) (created int, err error) {
	defer func() { s.recordRun("generate_schedules", err) }()

	var loans []*domain.Loan
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		loans, err = repos.Loans.ListApprovedUnscheduled(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	var errs []error
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := s.GenerateSchedule(ctx, loan.ID)
		if err != nil {
			s.log.WithError(err).WithField("loan_id", loan.ID).Error("failed to generate installments")
			errs = append(errs, err)
			continue
		}
		created += n
	}
	return created, errors.Join(errs...)
}

// GenerateSchedule creates the installments of one approved loan. A loan that
// already has installments is left alone and reports zero.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, loanID uuid.UUID) (int, error) {
	var (
		schedule []*domain.Installment
		event    domain.AuditEvent
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, err := repos.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status() != domain.LoanStatusApproved {
			return customError.WrapLoanNotApproved(loan.ID.String(), string(loan.Status()))
		}

		existing, err := repos.Installments.ListByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		schedule, err = domain.BuildSchedule(loan, loan.CreatedAt)
		if err != nil {
			return err
		}
		if err := repos.Installments.CreateSchedule(ctx, schedule); err != nil {
			return err
		}

		event = domain.NewAuditEvent(nil, domain.AuditInstallmentsGenerated, s.clock.Now(),
			map[string]any{
				"loan_id": loan.ID.String(),
				"count":   len(schedule),
			},
			map[string]any{"monthly_payment": schedule[0].Amount.String()},
		)
		return repos.Audit.Append(ctx, event)
	})
	if err != nil {
		return 0, err
	}
	if len(schedule) == 0 {
		return 0, nil
	}

	metrics.InstallmentsGeneratedTotal.Add(float64(len(schedule)))
	s.log.WithFields(logrus.Fields{
		"loan_id": loanID,
		"count":   len(schedule),
	}).Info("installments generated")
	publish(ctx, s.publisher, s.log, event)
	return len(schedule), nil
}

// MarkOverdue flags every pending installment due before today as late, in a
// single unit of work. It returns the number of installments flagged.
func (s *ScheduleService) MarkOverdue(ctx context.Context) (marked int, err error) {
	defer func() { s.recordRun("mark_overdue", err) }()

	now := s.clock.Now()
	today := utils.StartOfDay(now)

	var events []domain.AuditEvent
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		events = events[:0]

		overdue, err := repos.Installments.ListOverdue(ctx, today)
		if err != nil {
			return err
		}
		for _, installment := range overdue {
			if err := installment.MarkLate(); err != nil {
				return err
			}
			if err := repos.Installments.Save(ctx, installment); err != nil {
				return err
			}

			event := domain.NewAuditEvent(nil, domain.AuditInstallmentLate, now,
				map[string]any{
					"installment_id": installment.ID.String(),
					"status":         string(installment.Status()),
				},
				map[string]any{
					"loan_id":  installment.LoanID.String(),
					"due_date": installment.DueDate.Format(time.DateOnly),
				},
			)
			if err := repos.Audit.Append(ctx, event); err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.InstallmentsMarkedLateTotal.Add(float64(len(events)))
	s.log.WithFields(logrus.Fields{
		"as_of": today.Format(time.DateOnly),
		"count": len(events),
	}).Info("overdue installments marked late")
	publish(ctx, s.publisher, s.log, events...)
	return len(events), nil
}

func (s *ScheduleService) recordRun(job string, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = customError.KindOf(err)
	}
	metrics.SchedulerRunsTotal.WithLabelValues(job, outcome).Inc()
}
