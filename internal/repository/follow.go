package repository

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence operations for subscriptions.
type FollowRepository interface {
	// Follow inserts the pair and reports whether a row was created.
	Follow(ctx context.Context, userID, authorID uint) (bool, error)
	// Unfollow removes the pair and reports whether a row was deleted.
	Unfollow(ctx context.Context, userID, authorID uint) (bool, error)
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) Follow(ctx context.Context, userID, authorID uint) (bool, error) {
	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	res := r.db.WithContext(ctx).
		Omit("User", "Author").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow)
	if res.Error != nil {
		if errors.Is(res.Error, models.ErrSelfFollow) {
			return false, models.NewValidationError(models.ErrSelfFollow.Error())
		}
		r.log.LogError(ctx, res.Error, "follow")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogWrite(ctx, "follow", "user_id", userID, "author_id", authorID)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "unfollow")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogWrite(ctx, "unfollow", "user_id", userID, "author_id", authorID)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
