package domain

import (
	"context"
)

// Permissions checked per action. Token issuance and role management are
// owned by the external auth service; this core only consumes the
// permission set carried by the bearer token.
const (
	PermissionLeadRead       = "lead:read"
	PermissionLeadCreate     = "lead:create"
	PermissionLeadUpdate     = "lead:update"
	PermissionLeadDelete     = "lead:delete"
	PermissionSettingsUpdate = "settings:update"
)

type contextKey string

// AuthContextKey is the context key under which the authenticated
// principal is stored by the auth middleware.
const AuthContextKey contextKey = "auth_context"

// AuthContext is the tenant-scoped principal derived from the bearer token
type AuthContext struct {
	UserID      string
	TenantID    string
	Permissions []string
}

// HasPermission reports whether the principal carries the given permission
func (a *AuthContext) HasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// WithAuthContext attaches the authenticated principal to the context
func WithAuthContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, auth)
}

// AuthFromContext extracts the authenticated principal from the context
func AuthFromContext(ctx context.Context) (*AuthContext, error) {
	auth, ok := ctx.Value(AuthContextKey).(*AuthContext)
	if !ok || auth == nil {
		return nil, ErrNotAuthenticated
	}
	return auth, nil
}

// AuthService guards service operations with per-action permission checks
type AuthService interface {
	// AuthenticateForTenant returns the principal from the context
	AuthenticateForTenant(ctx context.Context) (*AuthContext, error)

	// RequirePermission returns the principal if it carries the permission
	RequirePermission(ctx context.Context, permission string) (*AuthContext, error)
}
