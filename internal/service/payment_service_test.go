package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/mocks"
	"github.com/segyhp/lending-core/internal/repository/memory"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// paymentFixture is an approved 1000 USD loan with its twelve 100.46 USD installments.
type paymentFixture struct {
	store    *memory.Store
	loan     *domain.Loan
	schedule []*domain.Installment
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	store := memory.NewStore()
	client := seedClient(store, "500.00", false)
	loan := seedLoan(t, store, client.ID, domain.LoanStatusApproved)
	return paymentFixture{store: store, loan: loan, schedule: seedSchedule(t, store, loan)}
}

func (f paymentFixture) service(guard ReferenceGuard) *PaymentService {
	return NewPaymentService(f.store, fixedClock{now: testNow}, guard, NoopPublisher(), nullLogger())
}

func payCommand(installmentID uuid.UUID, reference string) RegisterPaymentCommand {
	return RegisterPaymentCommand{
		InstallmentID: installmentID,
		Reference:     reference,
		Amount:        dec("100.46"),
		Currency:      "USD",
	}
}

func TestRegisterPayment_Success(t *testing.T) {
	f := newPaymentFixture(t)
	installment := f.schedule[0]
	actor := actorWithRole(RoleClient)

	paymentID, err := f.service(NoopReferenceGuard()).RegisterPayment(context.Background(), actor, payCommand(installment.ID, "TX-001"))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, paymentID)

	stored, _ := f.store.Installment(installment.ID)
	assert.Equal(t, domain.InstallmentStatusPaid, stored.Status())

	payments := f.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, paymentID, payments[0].ID)
	assert.Equal(t, f.loan.ID, payments[0].LoanID)
	require.NotNil(t, payments[0].InstallmentID)
	assert.Equal(t, installment.ID, *payments[0].InstallmentID)
	assert.Equal(t, "100.46 USD", payments[0].Amount.String())
	assert.Equal(t, testNow, payments[0].PaidAt)

	events := f.store.AuditEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditPaymentRegistered, events[0].Action)
	assert.Equal(t, actor.UserID, events[0].ActorUserID)
	assert.Equal(t, map[string]any{"payment_id": paymentID.String(), "reference": "TX-001"}, events[0].After)
	assert.Equal(t, map[string]any{
		"installment_id": installment.ID.String(),
		"loan_id":        f.loan.ID.String(),
	}, events[0].Meta)
}

func TestRegisterPayment_LateInstallmentCanBePaid(t *testing.T) {
	f := newPaymentFixture(t)
	installment := f.schedule[0]
	require.NoError(t, installment.MarkLate())
	f.store.SeedInstallments(installment)

	_, err := f.service(NoopReferenceGuard()).RegisterPayment(context.Background(), actorWithRole(RoleAdmin), payCommand(installment.ID, "TX-LATE"))

	require.NoError(t, err)
	stored, _ := f.store.Installment(installment.ID)
	assert.Equal(t, domain.InstallmentStatusPaid, stored.Status())
}

func TestRegisterPayment_DuplicateReference(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.service(NoopReferenceGuard())
	actor := actorWithRole(RoleClient)

	_, err := svc.RegisterPayment(context.Background(), actor, payCommand(f.schedule[0].ID, "TX-DUP"))
	require.NoError(t, err)

	_, err = svc.RegisterPayment(context.Background(), actor, payCommand(f.schedule[1].ID, "TX-DUP"))

	assert.True(t, errors.Is(err, customError.ErrConflict))
	assert.Equal(t, customError.ErrCodeDuplicatePaymentReference, customError.CodeOf(err))
	second, _ := f.store.Installment(f.schedule[1].ID)
	assert.Equal(t, domain.InstallmentStatusPending, second.Status())
	assert.Len(t, f.store.Payments(), 1)
	assert.Len(t, f.store.AuditEvents(), 1)
}

func TestRegisterPayment_AlreadyPaid(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.service(NoopReferenceGuard())
	actor := actorWithRole(RoleClient)

	_, err := svc.RegisterPayment(context.Background(), actor, payCommand(f.schedule[0].ID, "TX-1"))
	require.NoError(t, err)

	_, err = svc.RegisterPayment(context.Background(), actor, payCommand(f.schedule[0].ID, "TX-2"))

	assert.True(t, errors.Is(err, customError.ErrConflict))
	assert.Equal(t, customError.ErrCodeInstallmentAlreadyPaid, customError.CodeOf(err))
	assert.Len(t, f.store.Payments(), 1)
}

func TestRegisterPayment_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		mutate func(*RegisterPaymentCommand)
		kind   error
		code   string
	}{
		{
			name:   "amount below installment",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Amount = dec("100.45") },
			kind:   customError.ErrBusinessRule,
			code:   customError.ErrCodePaymentAmountMismatch,
		},
		{
			name:   "amount above installment",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Amount = dec("200.92") },
			kind:   customError.ErrBusinessRule,
			code:   customError.ErrCodePaymentAmountMismatch,
		},
		{
			name:   "other currency",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Currency = "EUR" },
			kind:   customError.ErrBusinessRule,
			code:   customError.ErrCodePaymentAmountMismatch,
		},
		{
			name:   "negative amount",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Amount = dec("-100.46") },
			kind:   customError.ErrValidation,
			code:   customError.ErrCodeInvalidAmount,
		},
		{
			name:   "empty reference",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Reference = "" },
			kind:   customError.ErrValidation,
			code:   customError.ErrCodeInvalidReference,
		},
		{
			name:   "reference too long",
			role:   RoleClient,
			mutate: func(c *RegisterPaymentCommand) { c.Reference = strings.Repeat("x", domain.MaxReferenceLength+1) },
			kind:   customError.ErrValidation,
			code:   customError.ErrCodeInvalidReference,
		},
		{
			name:   "unknown installment",
			role:   RoleAnalyst,
			mutate: func(c *RegisterPaymentCommand) { c.InstallmentID = uuid.New() },
			kind:   customError.ErrNotFound,
			code:   customError.ErrCodeInstallmentNotFound,
		},
		{
			name: "unknown role",
			role: Role(""),
			kind: customError.ErrForbidden,
			code: customError.ErrCodeForbiddenRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			cmd := payCommand(f.schedule[0].ID, "TX-REJECT")
			if tt.mutate != nil {
				tt.mutate(&cmd)
			}

			paymentID, err := f.service(NoopReferenceGuard()).RegisterPayment(context.Background(), actorWithRole(tt.role), cmd)

			assert.Equal(t, uuid.Nil, paymentID)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.code, customError.CodeOf(err))

			stored, _ := f.store.Installment(f.schedule[0].ID)
			assert.Equal(t, domain.InstallmentStatusPending, stored.Status())
			assert.Empty(t, f.store.Payments())
			assert.Empty(t, f.store.AuditEvents())
		})
	}
}

func TestRegisterPayment_ConcurrentPaymentsForOneInstallment(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.service(NoopReferenceGuard())
	installmentID := f.schedule[0].ID

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := payCommand(installmentID, "TX-RACE-"+uuid.NewString())
			_, errs[i] = svc.RegisterPayment(context.Background(), actorWithRole(RoleClient), cmd)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, customError.ErrConflict), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.Payments(), 1)
	assert.Len(t, f.store.AuditEvents(), 1)
}

func TestRegisterPayment_ConcurrentPaymentsWithOneReference(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.service(NoopReferenceGuard())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[i].ID, "TX-SHARED"))
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.Equal(t, customError.ErrCodeDuplicatePaymentReference, customError.CodeOf(err))
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, f.store.Payments(), 1)
}

func TestRegisterPayment_ReferenceGuard(t *testing.T) {
	t.Run("hit short-circuits", func(t *testing.T) {
		f := newPaymentFixture(t)
		guard := &mocks.MockReferenceGuard{}
		guard.On("Seen", mock.Anything, "TX-KNOWN").Return(true, nil)

		_, err := f.service(guard).RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[0].ID, "TX-KNOWN"))

		assert.True(t, errors.Is(err, customError.ErrConflict))
		assert.Equal(t, customError.ErrCodeDuplicatePaymentReference, customError.CodeOf(err))
		guard.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything)
		assert.Empty(t, f.store.Payments())
	})

	t.Run("miss records the reference after commit", func(t *testing.T) {
		f := newPaymentFixture(t)
		guard := &mocks.MockReferenceGuard{}
		guard.On("Seen", mock.Anything, "TX-NEW").Return(false, nil)
		guard.On("Remember", mock.Anything, "TX-NEW").Return(nil).Once()

		_, err := f.service(guard).RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[0].ID, "TX-NEW"))

		require.NoError(t, err)
		guard.AssertExpectations(t)
	})

	t.Run("outage falls back to the store", func(t *testing.T) {
		f := newPaymentFixture(t)
		guard := &mocks.MockReferenceGuard{}
		guard.On("Seen", mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))
		guard.On("Remember", mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))
		svc := f.service(guard)

		_, err := svc.RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[0].ID, "TX-OUTAGE"))
		require.NoError(t, err)

		_, err = svc.RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[1].ID, "TX-OUTAGE"))
		assert.Equal(t, customError.ErrCodeDuplicatePaymentReference, customError.CodeOf(err))
	})
}

func TestRegisterPayment_PublishesAuditEvent(t *testing.T) {
	f := newPaymentFixture(t)
	publisher := &mocks.MockEventPublisher{}
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.AuditEvent) bool {
		return e.Action == domain.AuditPaymentRegistered && e.After["reference"] == "TX-PUB"
	})).Return(nil).Once()
	svc := NewPaymentService(f.store, fixedClock{now: testNow}, NoopReferenceGuard(), publisher, nullLogger())

	_, err := svc.RegisterPayment(context.Background(), actorWithRole(RoleClient), payCommand(f.schedule[0].ID, "TX-PUB"))

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestRegisterPayment_CancelledContext(t *testing.T) {
	f := newPaymentFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service(NoopReferenceGuard()).RegisterPayment(ctx, actorWithRole(RoleClient), payCommand(f.schedule[0].ID, "TX-CANCEL"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.Payments())
}
