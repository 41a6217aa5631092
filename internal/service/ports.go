package service

import (
	"context"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
)

// Clock is the injected time source.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ReferenceGuard is a fast-path record of payment references already settled.
// It may forget references; the payments table stays authoritative.
type ReferenceGuard interface {
	Seen(ctx context.Context, reference string) (bool, error)
	Remember(ctx context.Context, reference string) error
}

// EventPublisher fans committed audit events out to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

type noopGuard struct{}

func (noopGuard) Seen(context.Context, string) (bool, error) { return false, nil }
func (noopGuard) Remember(context.Context, string) error     { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.AuditEvent) error { return nil }

// NoopReferenceGuard never reports a reference as seen.
func NoopReferenceGuard() ReferenceGuard { return noopGuard{} }

// NoopPublisher drops every event.
func NoopPublisher() EventPublisher { return noopPublisher{} }
