package repository

import (
	"context"
	"time"

	"github.com/segyhp/lending-core/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type statsRepository struct {
	db sqlx.ExtContext
}

func NewStatsRepository(db sqlx.ExtContext) StatsRepository {
	return &statsRepository{db: db}
}

type clientTotalsRow struct {
	Clients       int `db:"clients"`
	Active        int `db:"active"`
	Delinquent    int `db:"delinquent"`
	MultipleLoans int `db:"multiple_loans"`
}

type groupRow struct {
	Key   string          `db:"key"`
	Count int             `db:"count"`
	Sum   decimal.Decimal `db:"sum"`
}

func (r *statsRepository) Portfolio(ctx context.Context, asOf time.Time) (*domain.PortfolioStats, error) {
	stats := domain.NewPortfolioStats()

	var clients clientTotalsRow
	err := sqlx.GetContext(ctx, r.db, &clients, `
		SELECT
			COUNT(*) AS clients,
			COUNT(*) FILTER (WHERE status = $1) AS active,
			COUNT(*) FILTER (WHERE is_delinquent) AS delinquent,
			(SELECT COUNT(*) FROM (
				SELECT client_id FROM loans GROUP BY client_id HAVING COUNT(*) > 1
			) m) AS multiple_loans
		FROM clients
	`, domain.ClientStatusActive)
	if err != nil {
		return nil, wrapDBError(err)
	}
	stats.Clients = clients.Clients
	stats.ActiveClients = clients.Active
	stats.DelinquentClients = clients.Delinquent
	stats.ClientsWithMultipleLoans = clients.MultipleLoans

	byStatus, err := r.group(ctx, `SELECT status AS key, COUNT(*) AS count, 0 AS sum FROM loans GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.Loans += row.Count
		stats.LoansByStatus[domain.LoanStatus(row.Key)] = row.Count
	}

	byCurrency, err := r.group(ctx, `
		SELECT currency AS key, COUNT(*) AS count, SUM(principal_amount) AS sum
		FROM loans
		GROUP BY currency
	`)
	if err != nil {
		return nil, err
	}
	for _, row := range byCurrency {
		stats.LoansByCurrency[row.Key] = row.Count
		stats.PrincipalByCurrency[row.Key] = row.Sum
	}

	installments, err := r.group(ctx, `SELECT status AS key, COUNT(*) AS count, 0 AS sum FROM installments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for _, row := range installments {
		stats.Installments += row.Count
		stats.InstallmentsByStatus[domain.InstallmentStatus(row.Key)] = row.Count
	}

	err = sqlx.GetContext(ctx, r.db, &stats.OverdueInstallments,
		`SELECT COUNT(*) FROM installments WHERE status = $1 AND due_date < $2`,
		domain.InstallmentStatusPending, asOf,
	)
	if err != nil {
		return nil, wrapDBError(err)
	}

	payments, err := r.group(ctx, `
		SELECT currency AS key, COUNT(*) AS count, SUM(amount) AS sum
		FROM payments
		GROUP BY currency
	`)
	if err != nil {
		return nil, err
	}
	for _, row := range payments {
		stats.Payments += row.Count
		stats.PaidByCurrency[row.Key] = row.Sum
	}

	return stats, nil
}

func (r *statsRepository) group(ctx context.Context, query string, args ...interface{}) ([]groupRow, error) {
	var rows []groupRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, wrapDBError(err)
	}
	return rows, nil
}
