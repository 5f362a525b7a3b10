package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) AuthenticateForTenant(ctx context.Context) (*domain.AuthContext, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthContext), args.Error(1)
}

func (m *MockAuthService) RequirePermission(ctx context.Context, permission string) (*domain.AuthContext, error) {
	args := m.Called(ctx, permission)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthContext), args.Error(1)
}
