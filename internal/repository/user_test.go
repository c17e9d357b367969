package repository

import (
	"context"
	"regexp"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "  leo  ", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "leo", user.Username)

	byName, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", byID.Username)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "leo", Password: "hash"}))
	err := repo.Create(ctx, &models.User{Username: "leo", Password: "hash"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "username")
}

func TestUserRepository_NotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetByUsername(ctx, "ghost")
	assert.True(t, models.IsNotFound(err))

	_, err = repo.GetByID(ctx, 42)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_GetByUsernameQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("leo", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(7, "leo"))

	user, err := repo.GetByUsername(context.Background(), "leo")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
