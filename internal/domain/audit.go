package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditLoanCreated           = "loan.created"
	AuditLoanApproved          = "loan.approved"
	AuditLoanRejected          = "loan.rejected"
	AuditPaymentRegistered     = "payment.registered"
	AuditInstallmentsGenerated = "installments.generated"
	AuditInstallmentLate       = "installment.late"
)

// AuditEvent is an immutable record of a state change.
type AuditEvent struct {
	ID          uuid.UUID      `json:"id"`
	ActorUserID *uuid.UUID     `json:"actor_user_id,omitempty"`
	Action      string         `json:"action"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Before      map[string]any `json:"before"`
	After       map[string]any `json:"after"`
	Meta        map[string]any `json:"meta"`
}

func NewAuditEvent(actorUserID *uuid.UUID, action string, occurredAt time.Time, after, meta map[string]any) AuditEvent {
	if after == nil {
		after = map[string]any{}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return AuditEvent{
		ID:          uuid.New(),
		ActorUserID: actorUserID,
		Action:      action,
		OccurredAt:  occurredAt,
		Before:      map[string]any{},
		After:       after,
		Meta:        meta,
	}
}
