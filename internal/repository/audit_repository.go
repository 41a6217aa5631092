package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segyhp/lending-core/internal/domain"

	"github.com/jmoiron/sqlx"
)

type auditRepository struct {
	db sqlx.ExtContext
}

func NewAuditRepository(db sqlx.ExtContext) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, event domain.AuditEvent) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, occurred_at, before, after, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	before, err := json.Marshal(event.Before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	after, err := json.Marshal(event.After)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return fmt.Errorf("marshal audit meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.ActorUserID,
		event.Action,
		event.OccurredAt,
		string(before),
		string(after),
		string(meta),
	)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}
