package repository

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type clientRow struct {
	ID               uuid.UUID       `db:"id"`
	Name             string          `db:"name"`
	Email            string          `db:"email"`
	Status           string          `db:"status"`
	IsDelinquent     bool            `db:"is_delinquent"`
	CapacityAmount   decimal.Decimal `db:"payment_capacity_amount"`
	CapacityCurrency string          `db:"payment_capacity_currency"`
}

func (row clientRow) toDomain() (*domain.Client, error) {
	capacity, err := domain.NewMoney(row.CapacityAmount, row.CapacityCurrency)
	if err != nil {
		return nil, err
	}
	return &domain.Client{
		ID:              row.ID,
		Name:            row.Name,
		Email:           row.Email,
		Status:          domain.ClientStatus(row.Status),
		IsDelinquent:    row.IsDelinquent,
		MonthlyCapacity: capacity,
	}, nil
}

type clientRepository struct {
	db sqlx.ExtContext
}

func NewClientRepository(db sqlx.ExtContext) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Get(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT id, name, email, status, is_delinquent, payment_capacity_amount, payment_capacity_currency
		FROM clients
		WHERE id = $1
	`

	var row clientRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, clientID); err != nil {
		if isNoRows(err) {
			return nil, customError.WrapClientNotFound(clientID.String())
		}
		return nil, wrapDBError(err)
	}

	return row.toDomain()
}

func (r *clientRepository) HasActiveDebt(ctx context.Context, clientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM loans l
			JOIN installments i ON i.loan_id = l.id
			WHERE l.client_id = $1
			  AND l.status = $2
			  AND i.status IN ($3, $4)
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query,
		clientID,
		domain.LoanStatusApproved,
		domain.InstallmentStatusPending,
		domain.InstallmentStatusLate,
	)
	if err != nil {
		return false, wrapDBError(err)
	}

	return exists, nil
}
