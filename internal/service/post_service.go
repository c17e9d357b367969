package service

import (
	"context"
	"errors"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// PostInput is the raw post form.
type PostInput struct {
	Text  string
	Group string
	// Image is nil when no file was uploaded.
	Image *ImageUpload
}

// PostPayload is a validated PostInput.
type PostPayload struct {
	Text  string
	Group *models.Group
	Image *ImageUpload
}

type PostService struct {
	posts          repository.PostRepository
	groups         repository.GroupRepository
	images         *ImageService
	reassignOnEdit bool
}

// NewPostService wires the post form. images may be nil, in which case uploads are ignored.
func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	images *ImageService,
	reassignOnEdit bool,
) *PostService {
	return &PostService{
		posts:          posts,
		groups:         groups,
		images:         images,
		reassignOnEdit: reassignOnEdit,
	}
}

// Validate checks the form without writing anything. Field errors come back as
// a validation AppError keyed by "text", "group" and "image".
func (s *PostService) Validate(ctx context.Context, in PostInput) (*PostPayload, error) {
	fields := map[string]string{}
	payload := &PostPayload{}

	text, err := validation.PostText(in.Text)
	if err != nil {
		fields["text"] = err.Error()
	}
	payload.Text = text

	groupID, err := validation.GroupChoice(in.Group)
	switch {
	case err != nil:
		fields["group"] = err.Error()
	case groupID != 0:
		group, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			if !models.IsNotFound(err) {
				return nil, err
			}
			fields["group"] = validation.ErrInvalidGroup.Error()
		} else {
			payload.Group = group
		}
	}

	if in.Image != nil && s.images != nil {
		if _, _, err := s.images.Validate(*in.Image); err != nil {
			fields["image"] = err.Error()
		} else {
			payload.Image = in.Image
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	return payload, nil
}

// Create publishes a post by the viewer.
func (s *PostService) Create(ctx context.Context, viewer middleware.Identity, in PostInput) (*models.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	payload, err := s.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Text: payload.Text, AuthorID: viewer.UserID}
	if payload.Group != nil {
		post.GroupID = &payload.Group.ID
	}
	if payload.Image != nil {
		key, err := s.images.Save(ctx, *payload.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.images.Delete(ctx, post.Image)
		}
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("create").Inc()
	return post, nil
}

// ErrNotAuthor is returned when someone other than the author edits a post.
var ErrNotAuthor = errors.New("only the author can edit this post")

// Update edits text, group and image. Only the author may edit; whether the
// author changes is decided by the configured edit policy.
func (s *PostService) Update(ctx context.Context, viewer middleware.Identity, postID uint, in PostInput) (*models.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !viewer.Is(post.AuthorID) {
		return post, &models.AppError{Code: models.CodeUnauthorized, Message: ErrNotAuthor.Error(), Err: ErrNotAuthor}
	}

	payload, err := s.Validate(ctx, in)
	if err != nil {
		return post, err
	}

	post.Text = payload.Text
	post.GroupID = nil
	post.Group = nil
	if payload.Group != nil {
		post.GroupID = &payload.Group.ID
		post.Group = payload.Group
	}
	if s.reassignOnEdit {
		post.AuthorID = viewer.UserID
	}

	replaced := ""
	if payload.Image != nil {
		key, err := s.images.Save(ctx, *payload.Image)
		if err != nil {
			return post, err
		}
		if key != post.Image {
			replaced = post.Image
		}
		post.Image = key
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return post, err
	}
	if replaced != "" {
		s.images.Delete(ctx, replaced)
	}
	observability.PostsWritten.WithLabelValues("edit").Inc()
	return post, nil
}

// Get loads a post with author and group.
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// IsNotAuthor reports whether err came from a non-author edit.
func IsNotAuthor(err error) bool {
	return errors.Is(err, ErrNotAuthor)
}
