package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/repository"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dbOnce sync.Once
	testDB *sqlx.DB
	dbErr  error
)

// setupTestDB connects to TEST_DATABASE_URL, recreates the schema from
// scripts/init.sql once per run and empties every table.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	dbOnce.Do(func() {
		testDB, dbErr = sqlx.Connect("postgres", dsn)
		if dbErr != nil {
			return
		}
		dbErr = executeInitSQL(testDB)
	})
	require.NoError(t, dbErr)

	cleanupTestData(testDB)
	return testDB
}

func executeInitSQL(db *sqlx.DB) error {
	// Read init.sql file
	sqlBytes, err := os.ReadFile("../../scripts/init.sql")
	if err != nil {
		return fmt.Errorf("failed to read init.sql: %w", err)
	}

	db.MustExec("DROP TABLE IF EXISTS audit_log, payments, installments, loans, clients CASCADE")
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute init.sql: %w", err)
	}
	return nil
}

func cleanupTestData(db *sqlx.DB) {
	db.MustExec("TRUNCATE audit_log, payments, installments, loans, clients CASCADE")
}

func insertClient(t *testing.T, db *sqlx.DB, capacity string, delinquent bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	db.MustExec(`
		INSERT INTO clients (id, name, email, status, is_delinquent, payment_capacity_amount, payment_capacity_currency)
		VALUES ($1, $2, $3, 'active', $4, $5, 'USD')
	`, id, "Jane Doe", "jane@example.com", delinquent, capacity)
	return id
}

func newTestLoan(t *testing.T, clientID uuid.UUID) *domain.Loan {
	t.Helper()
	rate, err := domain.NewRate(decimal.RequireFromString("0.03"))
	require.NoError(t, err)
	loan, err := domain.NewLoan(uuid.New(), clientID, domain.MustMoney("1000.00", "USD"), rate, 12,
		time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return loan
}

func TestPostgres_ClientRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)

	clientID := insertClient(t, db, "250.00", true)

	client, err := repos.Clients.Get(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", client.Name)
	assert.True(t, client.IsDelinquent)
	assert.Equal(t, domain.ClientStatusActive, client.Status)
	assert.True(t, client.MonthlyCapacity.Equal(domain.MustMoney("250.00", "USD")))

	_, err = repos.Clients.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, customError.ErrNotFound))

	active, err := repos.Clients.HasActiveDebt(ctx, clientID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPostgres_LoanLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	clientID := insertClient(t, db, "500.00", false)

	loan := newTestLoan(t, clientID)
	created, err := repos.Loans.Create(ctx, loan)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, created.ID)
	assert.Equal(t, domain.LoanStatusPending, created.Status())
	assert.True(t, created.Principal.Equal(loan.Principal))
	assert.True(t, created.Rate.Monthly().Equal(loan.Rate.Monthly()))

	_, err = repos.Loans.Create(ctx, loan)
	assert.True(t, errors.Is(err, customError.ErrConflict))

	require.NoError(t, created.Approve())
	require.NoError(t, repos.Loans.Save(ctx, created))

	unscheduled, err := repos.Loans.ListApprovedUnscheduled(ctx)
	require.NoError(t, err)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, loan.ID, unscheduled[0].ID)

	schedule, err := domain.BuildSchedule(created, created.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, repos.Installments.CreateSchedule(ctx, schedule))

	unscheduled, err = repos.Loans.ListApprovedUnscheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, unscheduled)

	stored, err := repos.Installments.ListByLoan(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, stored, 12)
	assert.Equal(t, 1, stored[0].Number)
	assert.True(t, stored[0].Amount.Equal(domain.MustMoney("100.46", "USD")))

	active, err := repos.Clients.HasActiveDebt(ctx, clientID)
	require.NoError(t, err)
	assert.True(t, active)

	err = repos.Installments.CreateSchedule(ctx, schedule[:1])
	assert.Equal(t, customError.ErrCodeScheduleExists, customError.CodeOf(err))

	err = repos.Loans.Save(ctx, newTestLoan(t, clientID))
	assert.True(t, errors.Is(err, customError.ErrNotFound))
}

func TestPostgres_OverdueAndPayments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	clientID := insertClient(t, db, "500.00", false)

	loan, err := repos.Loans.Create(ctx, newTestLoan(t, clientID))
	require.NoError(t, err)
	require.NoError(t, loan.Approve())
	require.NoError(t, repos.Loans.Save(ctx, loan))
	schedule, err := domain.BuildSchedule(loan, loan.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, repos.Installments.CreateSchedule(ctx, schedule))

	// installments 1 and 2 are due 2025-02-10 and 2025-03-10
	overdue, err := repos.Installments.ListOverdue(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 1, overdue[0].Number)

	first := schedule[0]
	installmentID := first.ID
	payment := &domain.Payment{
		ID:            uuid.New(),
		LoanID:        loan.ID,
		InstallmentID: &installmentID,
		Reference:     "BANK-REF-1",
		Amount:        first.Amount,
		PaidAt:        time.Date(2025, 2, 9, 12, 0, 0, 0, time.UTC),
	}
	_, err = repos.Payments.Create(ctx, payment)
	require.NoError(t, err)

	exists, err := repos.Payments.ExistsByReference(ctx, "BANK-REF-1")
	require.NoError(t, err)
	assert.True(t, exists)

	payment.ID = uuid.New()
	_, err = repos.Payments.Create(ctx, payment)
	assert.Equal(t, customError.ErrCodeDuplicatePaymentReference, customError.CodeOf(err))

	locked, err := repos.Installments.GetForUpdate(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, locked.MarkPaid())
	require.NoError(t, repos.Installments.Save(ctx, locked))

	overdue, err = repos.Installments.ListOverdue(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	_, err = repos.Installments.GetForUpdate(ctx, uuid.New())
	assert.True(t, errors.Is(err, customError.ErrNotFound))
}

func TestPostgres_UnitOfWorkRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	uow := repository.NewUnitOfWork(db)
	clientID := insertClient(t, db, "500.00", false)
	loan := newTestLoan(t, clientID)

	failure := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Loans.Create(ctx, loan); err != nil {
			return err
		}
		return repos.Audit.Append(ctx, domain.NewAuditEvent(nil, domain.AuditLoanCreated, loan.CreatedAt,
			map[string]any{"loan_id": loan.ID.String()}, nil))
	})
	require.NoError(t, err)

	other := newTestLoan(t, clientID)
	err = uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Loans.Create(ctx, other); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, err = repository.NewRepositories(db).Loans.Get(ctx, other.ID)
	assert.True(t, errors.Is(err, customError.ErrNotFound))

	var audits int
	require.NoError(t, db.Get(&audits, "SELECT COUNT(*) FROM audit_log WHERE action = $1", domain.AuditLoanCreated))
	assert.Equal(t, 1, audits)
}

func TestPostgres_RejectedValuesAreValidationErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	clientID := insertClient(t, db, "500.00", false)

	rate, err := domain.NewRate(decimal.RequireFromString("0.03"))
	require.NoError(t, err)
	createdAt := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	// restored loans skip term validation, so the columns are the last line
	overflow := domain.RestoreLoan(uuid.New(), clientID, domain.MustMoney("12345678901234.00", "USD"), rate, 12,
		domain.LoanStatusPending, createdAt)
	_, err = repos.Loans.Create(ctx, overflow)
	assert.True(t, errors.Is(err, customError.ErrValidation))
	assert.Equal(t, customError.ErrCodeConstraintViolation, customError.CodeOf(err))

	zero := domain.RestoreLoan(uuid.New(), clientID, domain.MustMoney("0.00", "USD"), rate, 12,
		domain.LoanStatusPending, createdAt)
	_, err = repos.Loans.Create(ctx, zero)
	assert.True(t, errors.Is(err, customError.ErrValidation))
	assert.Equal(t, customError.ErrCodeConstraintViolation, customError.CodeOf(err))
}

func TestPostgres_ListAndPortfolio(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	clientID := insertClient(t, db, "500.00", true)

	first, err := repos.Loans.Create(ctx, newTestLoan(t, clientID))
	require.NoError(t, err)
	later := newTestLoan(t, clientID)
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	second, err := repos.Loans.Create(ctx, later)
	require.NoError(t, err)

	loans, err := repos.Loans.List(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, second.ID, loans[0].ID)
	assert.Equal(t, first.ID, loans[1].ID)

	require.NoError(t, first.Approve())
	require.NoError(t, repos.Loans.Save(ctx, first))
	schedule, err := domain.BuildSchedule(first, first.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, repos.Installments.CreateSchedule(ctx, schedule))

	installmentID := schedule[0].ID
	_, err = repos.Payments.Create(ctx, &domain.Payment{
		ID:            uuid.New(),
		LoanID:        first.ID,
		InstallmentID: &installmentID,
		Reference:     "BANK-REF-9",
		Amount:        schedule[0].Amount,
		PaidAt:        first.CreatedAt,
	})
	require.NoError(t, err)

	// installments 1 and 2 are due 2025-02-10 and 2025-03-10
	stats, err := repos.Stats.Portfolio(ctx, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Clients)
	assert.Equal(t, 1, stats.DelinquentClients)
	assert.Equal(t, 1, stats.ClientsWithMultipleLoans)
	assert.Equal(t, 2, stats.Loans)
	assert.Equal(t, map[domain.LoanStatus]int{domain.LoanStatusApproved: 1, domain.LoanStatusPending: 1}, stats.LoansByStatus)
	assert.Equal(t, "2000.00", stats.PrincipalByCurrency["USD"].StringFixed(2))
	assert.Equal(t, 12, stats.Installments)
	assert.Equal(t, 2, stats.OverdueInstallments)
	assert.Equal(t, 1, stats.Payments)
	assert.Equal(t, "100.46", stats.PaidByCurrency["USD"].StringFixed(2))
}
