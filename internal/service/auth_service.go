package service

import (
	"context"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

// AuthService resolves the authenticated principal placed in the request
// context by the auth middleware and enforces per-action permissions.
type AuthService struct {
	logger logger.Logger
}

func NewAuthService(logger logger.Logger) *AuthService {
	return &AuthService{
		logger: logger,
	}
}

func (s *AuthService) AuthenticateForTenant(ctx context.Context) (*domain.AuthContext, error) {
	return domain.AuthFromContext(ctx)
}

func (s *AuthService) RequirePermission(ctx context.Context, permission string) (*domain.AuthContext, error) {
	auth, err := domain.AuthFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !auth.HasPermission(permission) {
		return nil, &domain.ErrPermissionDenied{Permission: permission}
	}
	return auth, nil
}
