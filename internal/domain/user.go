package domain

import (
	"context"
	"time"
)

// User is the slice of the external user directory this core consumes.
// User CRUD and role management live outside this service; lead rows only
// join to users for owner-name display.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRepository provides the id -> name lookup for owner display
type UserRepository interface {
	// GetNamesByIDs resolves user ids to display names within a tenant
	GetNamesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

// UserService resolves owner display names for the authenticated tenant
type UserService interface {
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
}
