package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

// Follow subscribes the viewer to username. Following twice is a no-op.
// Following oneself returns the author with a validation error and writes nothing.
func (s *FollowService) Follow(ctx context.Context, viewer middleware.Identity, username string) (*models.User, error) {
	if !viewer.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if viewer.Is(author.ID) {
		return author, models.NewValidationError(models.ErrSelfFollow.Error())
	}

	created, err := s.follows.Follow(ctx, viewer.UserID, author.ID)
	if err != nil {
		return author, err
	}
	if created {
		observability.FollowEvents.WithLabelValues("follow").Inc()
		middleware.Logger.InfoContext(ctx, "user followed author", slog.Uint64("author_id", uint64(author.ID)))
	}
	return author, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, viewer middleware.Identity, username string) (*models.User, error) {
	if !viewer.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.Unfollow(ctx, viewer.UserID, author.ID)
	if err != nil {
		return author, err
	}
	if removed {
		observability.FollowEvents.WithLabelValues("unfollow").Inc()
	}
	return author, nil
}
