package service

import (
	"testing"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func actorWithRole(role Role) Actor {
	id := uuid.New()
	return Actor{UserID: &id, Role: role}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedClient(store *memory.Store, capacity string, delinquent bool) domain.Client {
	client := domain.Client{
		ID:              uuid.New(),
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Status:          domain.ClientStatusActive,
		IsDelinquent:    delinquent,
		MonthlyCapacity: domain.MustMoney(capacity, "USD"),
	}
	store.SeedClient(client)
	return client
}

// seedLoan stores a 1000 USD, 3%, 12 month loan in the given status.
func seedLoan(t *testing.T, store *memory.Store, clientID uuid.UUID, status domain.LoanStatus) *domain.Loan {
	t.Helper()
	rate, err := domain.NewRate(dec("0.03"))
	require.NoError(t, err)

	loan := domain.RestoreLoan(uuid.New(), clientID, domain.MustMoney("1000.00", "USD"), rate, 12, status, testNow.AddDate(0, -2, 0))
	store.SeedLoan(loan)
	return loan
}

// seedSchedule stores the pending schedule of an approved loan.
func seedSchedule(t *testing.T, store *memory.Store, loan *domain.Loan) []*domain.Installment {
	t.Helper()
	schedule, err := domain.BuildSchedule(loan, loan.CreatedAt)
	require.NoError(t, err)
	store.SeedInstallments(schedule...)
	return schedule
}
