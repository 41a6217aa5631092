package mocks

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockReferenceGuard struct {
	mock.Mock
}

func (m *MockReferenceGuard) Seen(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferenceGuard) Remember(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
