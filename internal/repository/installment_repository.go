package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const installmentColumns = `id, loan_id, number, due_date, amount, currency, status`

type installmentRow struct {
	ID       uuid.UUID       `db:"id"`
	LoanID   uuid.UUID       `db:"loan_id"`
	Number   int             `db:"number"`
	DueDate  time.Time       `db:"due_date"`
	Amount   decimal.Decimal `db:"amount"`
	Currency string          `db:"currency"`
	Status   string          `db:"status"`
}

func (row installmentRow) toDomain() (*domain.Installment, error) {
	amount, err := domain.NewMoney(row.Amount, row.Currency)
	if err != nil {
		return nil, err
	}
	return domain.RestoreInstallment(
		row.ID,
		row.LoanID,
		row.Number,
		row.DueDate,
		amount,
		domain.InstallmentStatus(row.Status),
	), nil
}

type installmentRepository struct {
	db sqlx.ExtContext
}

func NewInstallmentRepository(db sqlx.ExtContext) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY number
	`

	return r.list(ctx, query, loanID)
}

func (r *installmentRepository) GetForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE id = $1
		FOR UPDATE
	`

	var row installmentRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, installmentID); err != nil {
		if isNoRows(err) {
			return nil, customError.WrapInstallmentNotFound(installmentID.String())
		}
		return nil, wrapDBError(err)
	}

	return row.toDomain()
}

func (r *installmentRepository) Save(ctx context.Context, installment *domain.Installment) error {
	query := `
		UPDATE installments
		SET status = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, installment.ID, installment.Status())
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return customError.WrapInstallmentNotFound(installment.ID.String())
	}

	return nil
}

func (r *installmentRepository) CreateSchedule(ctx context.Context, installments []*domain.Installment) error {
	query := `
		INSERT INTO installments (id, loan_id, number, due_date, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, inst := range installments {
		_, err := r.db.ExecContext(ctx, query,
			inst.ID,
			inst.LoanID,
			inst.Number,
			inst.DueDate,
			inst.Amount.Amount(),
			inst.Amount.Currency(),
			inst.Status(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return customError.NewConflict(
					customError.ErrCodeScheduleExists,
					fmt.Sprintf("installment %d of loan %s already exists", inst.Number, inst.LoanID),
				)
			}
			return wrapDBError(err)
		}
	}

	return nil
}

func (r *installmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	// rows locked by an in-flight payment are left for the next run
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date, number
		FOR UPDATE SKIP LOCKED
	`

	return r.list(ctx, query, domain.InstallmentStatusPending, asOf)
}

func (r *installmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Installment, error) {
	var rows []installmentRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, wrapDBError(err)
	}

	installments := make([]*domain.Installment, 0, len(rows))
	for _, row := range rows {
		inst, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	return installments, nil
}
