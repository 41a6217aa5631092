package repository

import (
	"context"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, client_id, principal_amount, currency, monthly_rate, term_months, status, created_at`

type loanRow struct {
	ID              uuid.UUID       `db:"id"`
	ClientID        uuid.UUID       `db:"client_id"`
	PrincipalAmount decimal.Decimal `db:"principal_amount"`
	Currency        string          `db:"currency"`
	MonthlyRate     decimal.Decimal `db:"monthly_rate"`
	TermMonths      int             `db:"term_months"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (row loanRow) toDomain() (*domain.Loan, error) {
	principal, err := domain.NewMoney(row.PrincipalAmount, row.Currency)
	if err != nil {
		return nil, err
	}
	rate, err := domain.NewRate(row.MonthlyRate)
	if err != nil {
		return nil, err
	}
	return domain.RestoreLoan(
		row.ID,
		row.ClientID,
		principal,
		rate,
		row.TermMonths,
		domain.LoanStatus(row.Status),
		row.CreatedAt,
	), nil
}

type loanRepository struct {
	db sqlx.ExtContext
}

func NewLoanRepository(db sqlx.ExtContext) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	query := `
		INSERT INTO loans (id, client_id, principal_amount, currency, monthly_rate, term_months, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + loanColumns

	var row loanRow
	err := sqlx.GetContext(ctx, r.db, &row, query,
		loan.ID,
		loan.ClientID,
		loan.Principal.Amount(),
		loan.Principal.Currency(),
		loan.Rate.Monthly(),
		loan.TermMonths,
		loan.Status(),
		loan.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, customError.WrapLoanAlreadyExists(loan.ID.String())
		}
		return nil, wrapDBError(err)
	}

	return row.toDomain()
}

func (r *loanRepository) Get(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
}

func (r *loanRepository) GetForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, loanID)
}

func (r *loanRepository) get(ctx context.Context, query string, loanID uuid.UUID) (*domain.Loan, error) {
	var row loanRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, loanID); err != nil {
		if isNoRows(err) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, wrapDBError(err)
	}

	return row.toDomain()
}

func (r *loanRepository) Save(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, loan.ID, loan.Status())
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return customError.WrapLoanNotFound(loan.ID.String())
	}

	return nil
}

func (r *loanRepository) ListApprovedUnscheduled(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans l
		WHERE l.status = $1
		  AND NOT EXISTS (SELECT 1 FROM installments i WHERE i.loan_id = l.id)
		ORDER BY l.created_at
	`

	return r.list(ctx, query, domain.LoanStatusApproved)
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		ORDER BY created_at DESC, id
	`

	return r.list(ctx, query)
}

func (r *loanRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Loan, error) {
	var rows []loanRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, wrapDBError(err)
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, nil
}
