// Package messaging fans committed audit events out over RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segyhp/lending-core/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind is the exchange type audit events are published to. The routing
// key is the audit action, so consumers bind on patterns like "loan.*".
const ExchangeKind = "topic"

// RabbitMQPublisher publishes audit events as persistent JSON messages.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// NewRabbitMQPublisher dials amqpURL and declares a durable topic exchange.
func NewRabbitMQPublisher(amqpURL, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		ExchangeKind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Publish sends event with its action as routing key.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	msg, err := NewAuditMessage(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, p.exchange, event.Action, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Action, err)
	}
	return nil
}

// NewAuditMessage encodes event as a persistent JSON message.
func NewAuditMessage(event domain.AuditEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal audit event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Type:         event.Action,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
