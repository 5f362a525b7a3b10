package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/internal/repository"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

func TestUserService_GetNames(t *testing.T) {
	mockRepo := new(repository.MockUserRepository)
	mockAuth := new(MockAuthService)
	s := NewUserService(mockRepo, mockAuth, logger.NewMockLogger(t))

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(testAuthContext(domain.PermissionLeadRead), nil)
	mockRepo.On("GetNamesByIDs", mock.Anything, "tenant1", []string{"u1", "u2"}).
		Return(map[string]string{"u1": "Alice Chan", "u2": "Bob Reyes"}, nil)

	names, err := s.GetNames(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Chan", names["u1"])
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetNames_PermissionDenied(t *testing.T) {
	mockRepo := new(repository.MockUserRepository)
	mockAuth := new(MockAuthService)
	s := NewUserService(mockRepo, mockAuth, logger.NewMockLogger(t))

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(nil, &domain.ErrPermissionDenied{Permission: domain.PermissionLeadRead})

	_, err := s.GetNames(context.Background(), []string{"u1"})
	var denied *domain.ErrPermissionDenied
	assert.ErrorAs(t, err, &denied)
	mockRepo.AssertNotCalled(t, "GetNamesByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_GetNames_RepositoryError(t *testing.T) {
	mockRepo := new(repository.MockUserRepository)
	mockAuth := new(MockAuthService)
	s := NewUserService(mockRepo, mockAuth, logger.NewMockLogger(t))

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(testAuthContext(domain.PermissionLeadRead), nil)
	mockRepo.On("GetNamesByIDs", mock.Anything, "tenant1", []string{"u1"}).
		Return(nil, errors.New("connection reset"))

	_, err := s.GetNames(context.Background(), []string{"u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve user names")
}
