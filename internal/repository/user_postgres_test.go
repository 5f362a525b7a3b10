package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pipeboard/pipeboard/internal/repository/testutil"
)

func TestUserRepository_GetNamesByIDs(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users`).
		WithArgs("tenant1", pq.Array([]string{"u1", "u2", "unknown"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("u1", "Dana").
			AddRow("u2", "Sam"))

	names, err := repo.GetNamesByIDs(context.Background(), "tenant1", []string{"u1", "u2", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "Dana", "u2": "Sam"}, names)
}

func TestUserRepository_GetNamesByIDs_EmptyInput(t *testing.T) {
	db, _ := testutil.SetupMockDB(t)
	repo := NewUserRepository(db)

	names, err := repo.GetNamesByIDs(context.Background(), "tenant1", nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}
