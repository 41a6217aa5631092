package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/segyhp/lending-core/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditMessage(t *testing.T) {
	actor := uuid.New()
	occurredAt := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	event := domain.NewAuditEvent(&actor, domain.AuditPaymentRegistered, occurredAt,
		map[string]any{"payment_id": "p-1", "reference": "TX-1"},
		map[string]any{"installment_id": "i-1", "loan_id": "l-1"},
	)

	msg, err := NewAuditMessage(event)

	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, event.ID.String(), msg.MessageId)
	assert.Equal(t, domain.AuditPaymentRegistered, msg.Type)
	assert.Equal(t, occurredAt, msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "payment.registered", decoded["action"])
	assert.Equal(t, actor.String(), decoded["actor_user_id"])
	assert.Equal(t, map[string]any{}, decoded["before"])
	assert.Equal(t, "TX-1", decoded["after"].(map[string]any)["reference"])
	assert.Equal(t, "l-1", decoded["meta"].(map[string]any)["loan_id"])
}

func TestNewAuditMessage_SystemActorIsOmitted(t *testing.T) {
	event := domain.NewAuditEvent(nil, domain.AuditInstallmentLate, time.Now().UTC(), nil, nil)

	msg, err := NewAuditMessage(event)

	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	_, present := decoded["actor_user_id"]
	assert.False(t, present)
}

func TestNewAuditMessage_UnencodableEvent(t *testing.T) {
	event := domain.NewAuditEvent(nil, domain.AuditLoanCreated, time.Now().UTC(),
		map[string]any{"bad": make(chan int)}, nil)

	_, err := NewAuditMessage(event)

	assert.Error(t, err)
}
