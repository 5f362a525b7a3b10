package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

func TestAuthService_AuthenticateForTenant(t *testing.T) {
	s := NewAuthService(logger.NewMockLogger(t))

	ctx := domain.WithAuthContext(context.Background(), &domain.AuthContext{
		UserID:   "u1",
		TenantID: "tenant1",
	})

	auth, err := s.AuthenticateForTenant(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tenant1", auth.TenantID)

	_, err = s.AuthenticateForTenant(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestAuthService_RequirePermission(t *testing.T) {
	s := NewAuthService(logger.NewMockLogger(t))

	ctx := domain.WithAuthContext(context.Background(), &domain.AuthContext{
		UserID:      "u1",
		TenantID:    "tenant1",
		Permissions: []string{domain.PermissionLeadRead},
	})

	auth, err := s.RequirePermission(ctx, domain.PermissionLeadRead)
	require.NoError(t, err)
	assert.Equal(t, "u1", auth.UserID)

	_, err = s.RequirePermission(ctx, domain.PermissionSettingsUpdate)
	var denied *domain.ErrPermissionDenied
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, domain.PermissionSettingsUpdate, denied.Permission)

	_, err = s.RequirePermission(context.Background(), domain.PermissionLeadRead)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
