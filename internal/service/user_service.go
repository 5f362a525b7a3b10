package service

import (
	"context"
	"fmt"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

// UserService exposes the read-only owner-name lookup. User management
// itself lives outside this service.
type UserService struct {
	repo        domain.UserRepository
	authService domain.AuthService
	logger      logger.Logger
}

func NewUserService(repo domain.UserRepository, authService domain.AuthService, logger logger.Logger) *UserService {
	return &UserService{
		repo:        repo,
		authService: authService,
		logger:      logger,
	}
}

func (s *UserService) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	names, err := s.repo.GetNamesByIDs(ctx, auth.TenantID, ids)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to resolve user names: %v", err))
		return nil, fmt.Errorf("failed to resolve user names: %w", err)
	}

	return names, nil
}
