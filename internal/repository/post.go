package repository

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// PostFilter selects the scope of a feed. Zero fields are ignored; a zero filter selects all posts.
type PostFilter struct {
	GroupID  uint
	AuthorID uint
	// FollowerID limits the scope to authors this user follows.
	FollowerID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "post_id", post.ID, "author_id", post.AuthorID)
	return nil
}

// Update writes the editable columns. A nil GroupID clears the group.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(post).
		Select("text", "group_id", "image", "author_id", "updated_at").
		Updates(post)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogWrite(ctx, "update", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Delete removes a post. Deleting a missing post is not an error.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "delete", "post_id", id)
	return nil
}

// List returns posts newest first; posts published at the same instant are ordered by id.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.scope(r.db.WithContext(ctx), filter).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := r.scope(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.Count(ctx, PostFilter{AuthorID: authorID})
}

func (r *postRepository) scope(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != 0 {
		db = db.Where("posts.group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.FollowerID != 0 {
		followed := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID)
		db = db.Where("posts.author_id IN (?)", followed)
	}
	return db
}
