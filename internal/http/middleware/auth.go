package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

// tokenClaims is the payload minted by the external auth service. The
// subject is the user id; tenant_id and permissions scope every request.
type tokenClaims struct {
	TenantID    string   `json:"tenant_id"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// AuthConfig holds the configuration for the auth middleware
type AuthConfig struct {
	secret []byte
}

// NewAuthMiddleware creates a new auth middleware with the given signing secret
func NewAuthMiddleware(secret string) *AuthConfig {
	return &AuthConfig{
		secret: []byte(secret),
	}
}

// RequireAuth verifies the bearer token and attaches the tenant-scoped
// principal to the request context.
func (ac *AuthConfig) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims := &tokenClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return ac.secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
				return
			}
			if !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			if claims.Subject == "" {
				http.Error(w, "User ID not found in token", http.StatusUnauthorized)
				return
			}
			if claims.TenantID == "" {
				http.Error(w, "Tenant ID not found in token", http.StatusUnauthorized)
				return
			}

			ctx := domain.WithAuthContext(r.Context(), &domain.AuthContext{
				UserID:      claims.Subject,
				TenantID:    claims.TenantID,
				Permissions: claims.Permissions,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
