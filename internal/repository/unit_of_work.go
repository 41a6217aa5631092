package repository

import (
	"context"
	"database/sql"
	"errors"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	uniqueViolation   = "23505"
	checkViolation    = "23514"
	numericOutOfRange = "22003"
)

type unitOfWork struct {
	db *sqlx.DB
}

// NewUnitOfWork runs each unit inside one Postgres transaction.
func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	// row locks taken with FOR UPDATE are released here on every error path
	defer tx.Rollback()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError(err)
	}
	return nil
}

// NewRepositories binds every Postgres repository to db, which is either the
// pool or an open transaction.
func NewRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Clients:      NewClientRepository(db),
		Loans:        NewLoanRepository(db),
		Installments: NewInstallmentRepository(db),
		Payments:     NewPaymentRepository(db),
		Audit:        NewAuditRepository(db),
		Stats:        NewStatsRepository(db),
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// wrapDBError turns a value Postgres refused to store into a validation error;
// every other failure stays an internal database error.
func wrapDBError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case numericOutOfRange:
			return customError.WrapConstraintViolation("numeric value out of range")
		case checkViolation:
			return customError.WrapConstraintViolation("check constraint " + pqErr.Constraint + " failed")
		}
	}
	return customError.WrapDatabaseError(err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
