package mocks

import (
	"context"

	"github.com/cradoe/onboard/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.StepEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
