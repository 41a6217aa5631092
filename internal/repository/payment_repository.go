package repository

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/jmoiron/sqlx"
)

type paymentRepository struct {
	db sqlx.ExtContext
}

func NewPaymentRepository(db sqlx.ExtContext) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE reference = $1)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, reference); err != nil {
		return false, wrapDBError(err)
	}

	return exists, nil
}

// Create inserts the payment. The unique index on reference is what finally
// rejects a concurrent duplicate that slipped past ExistsByReference.
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	query := `
		INSERT INTO payments (id, loan_id, installment_id, reference, amount, currency, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.LoanID,
		payment.InstallmentID,
		payment.Reference,
		payment.Amount.Amount(),
		payment.Amount.Currency(),
		payment.PaidAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, customError.WrapDuplicatePaymentReference(payment.Reference)
		}
		return nil, wrapDBError(err)
	}

	return payment, nil
}
