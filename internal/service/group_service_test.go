package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewGroupService(env.groups)
	ctx := context.Background()

	group, err := svc.Create(ctx, " cats ", " Cats ", "All about cats")
	require.NoError(t, err)
	assert.Equal(t, "cats", group.Slug)
	assert.Equal(t, "Cats", group.Title)

	got, err := svc.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.ID)

	_, err = svc.Create(ctx, "cats", "Cats again", "")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.Create(ctx, "bad slug", "", "")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "slug")
	assert.Contains(t, appErr.Fields, "title")

	groups, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}
