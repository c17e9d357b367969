package repository

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	leo := testutil.CreateUser(t, db, "leo")
	ann := testutil.CreateUser(t, db, "ann")

	created, err := repo.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = repo.Follow(ctx, reader.ID, ann.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = ?", reader.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	ok, err := repo.IsFollowing(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsFollowing(ctx, leo.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := repo.Unfollow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Unfollow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err = repo.IsFollowing(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRepository_RejectsSelfFollow(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)

	leo := testutil.CreateUser(t, db, "leo")
	created, err := repo.Follow(context.Background(), leo.ID, leo.ID)
	assert.False(t, created)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFollowRepository_InsertIgnoresConflicts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "follows" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WithArgs(1, 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	created, err := repo.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
