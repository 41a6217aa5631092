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

type PaymentService struct {
	uow       repository.UnitOfWork
	clock     Clock
	guard     ReferenceGuard
	publisher EventPublisher
	log       *logrus.Logger
}

func NewPaymentService(
	uow repository.UnitOfWork,
	clock Clock,
	guard ReferenceGuard,
	publisher EventPublisher,
	log *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		uow:       uow,
		clock:     clock,
		guard:     guard,
		publisher: publisher,
		log:       log,
	}
}

// RegisterPayment settles one installment with an exact-amount payment.
// The installment row stays locked from the paid check until commit, so of two
// concurrent payments for the same installment exactly one succeeds.
func (s *PaymentService) RegisterPayment(ctx context.Context, actor Actor, cmd RegisterPaymentCommand) (paymentID uuid.UUID, err error) {
	fields := logrus.Fields{"installment_id": cmd.InstallmentID, "reference": cmd.Reference}
	defer func() { observe(s.log, "register_payment", err, fields) }()

	if err = authorize(actor, payerRoles...); err != nil {
		return uuid.Nil, err
	}
	if err = domain.ValidateReference(cmd.Reference); err != nil {
		return uuid.Nil, err
	}
	if s.seenReference(ctx, cmd.Reference) {
		return uuid.Nil, customError.WrapDuplicatePaymentReference(cmd.Reference)
	}

	var (
		payment *domain.Payment
		event   domain.AuditEvent
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		exists, err := repos.Payments.ExistsByReference(ctx, cmd.Reference)
		if err != nil {
			return err
		}
		if exists {
			return customError.WrapDuplicatePaymentReference(cmd.Reference)
		}

		installment, err := repos.Installments.GetForUpdate(ctx, cmd.InstallmentID)
		if err != nil {
			return err
		}
		if installment.IsPaid() {
			return customError.WrapInstallmentSettled(installment.ID.String())
		}

		amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
		if err != nil {
			return err
		}
		if !amount.Equal(installment.Amount) {
			return customError.WrapPaymentAmountMismatch(installment.Amount.String(), amount.String())
		}

		if err := installment.MarkPaid(); err != nil {
			return err
		}
		if err := repos.Installments.Save(ctx, installment); err != nil {
			return err
		}

		now := s.clock.Now()
		installmentID := installment.ID
		candidate := &domain.Payment{
			ID:            uuid.New(),
			LoanID:        installment.LoanID,
			InstallmentID: &installmentID,
			Reference:     cmd.Reference,
			Amount:        amount,
			PaidAt:        now,
		}
		if err := candidate.Validate(); err != nil {
			return err
		}
		payment, err = repos.Payments.Create(ctx, candidate)
		if err != nil {
			return err
		}

		event = domain.NewAuditEvent(actor.UserID, domain.AuditPaymentRegistered, now,
			map[string]any{
				"payment_id": payment.ID.String(),
				"reference":  payment.Reference,
			},
			map[string]any{
				"installment_id": installment.ID.String(),
				"loan_id":        installment.LoanID.String(),
			},
		)
		return repos.Audit.Append(ctx, event)
	})
	if err != nil {
		return uuid.Nil, err
	}

	fields["payment_id"] = payment.ID
	if err := s.guard.Remember(ctx, payment.Reference); err != nil {
		s.log.WithError(err).WithField("reference", payment.Reference).Warn("failed to remember payment reference")
	}
	metrics.PaymentsRegisteredTotal.WithLabelValues(payment.Amount.Currency()).Inc()
	publish(ctx, s.publisher, s.log, event)
	return payment.ID, nil
}

// seenReference consults the guard. A guard failure counts as a miss; the
// payments table decides.
func (s *PaymentService) seenReference(ctx context.Context, reference string) bool {
	seen, err := s.guard.Seen(ctx, reference)
	switch {
	case err != nil:
		metrics.ReferenceGuardTotal.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("reference", reference).Warn("payment reference guard unavailable")
		return false
	case seen:
		metrics.ReferenceGuardTotal.WithLabelValues("hit").Inc()
		return true
	default:
		metrics.ReferenceGuardTotal.WithLabelValues("miss").Inc()
		return false
	}
}
