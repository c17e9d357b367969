// Package service holds the application logic between HTTP handlers and repositories.
package service

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedPage is one page of posts plus its navigation metadata.
type FeedPage struct {
	Posts []*models.Post
	Page  pagination.Page
}

// AuthorSummary is the header shown above an author's posts.
type AuthorSummary struct {
	Author    *models.User
	PostCount int64
	// Following is true when an authenticated viewer follows the author.
	Following bool
}

// PostDetail is a single post with its author summary.
type PostDetail struct {
	Post *models.Post
	AuthorSummary
}

type FeedService struct {
	posts   repository.PostRepository
	groups  repository.GroupRepository
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
) *FeedService {
	return &FeedService{posts: posts, groups: groups, users: users, follows: follows}
}

// Index is every post, newest first.
func (s *FeedService) Index(ctx context.Context, rawPage string) (*FeedPage, error) {
	return s.page(ctx, "index", repository.PostFilter{}, rawPage)
}

// Group resolves slug and pages through the group's posts.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*models.Group, *FeedPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	feed, err := s.page(ctx, "group", repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, feed, nil
}

// Profile pages through one author's posts.
func (s *FeedService) Profile(ctx context.Context, viewer middleware.Identity, username, rawPage string) (*AuthorSummary, *FeedPage, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	feed, err := s.page(ctx, "profile", repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.summarize(ctx, viewer, author, feed.Page.Count)
	if err != nil {
		return nil, nil, err
	}
	return summary, feed, nil
}

// Follow pages through posts by authors the viewer follows.
func (s *FeedService) Follow(ctx context.Context, viewer middleware.Identity, rawPage string) (*FeedPage, error) {
	if !viewer.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.page(ctx, "follow", repository.PostFilter{FollowerID: viewer.UserID}, rawPage)
}

// Detail loads one post with its author's post count.
func (s *FeedService) Detail(ctx context.Context, viewer middleware.Identity, postID uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, viewer, &post.Author, count)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, AuthorSummary: *summary}, nil
}

func (s *FeedService) summarize(ctx context.Context, viewer middleware.Identity, author *models.User, count int64) (*AuthorSummary, error) {
	summary := &AuthorSummary{Author: author, PostCount: count}
	if viewer.IsAuthenticated() && !viewer.Is(author.ID) {
		following, err := s.follows.IsFollowing(ctx, viewer.UserID, author.ID)
		if err != nil {
			return nil, err
		}
		summary.Following = following
	}
	return summary, nil
}

func (s *FeedService) page(ctx context.Context, scope string, filter repository.PostFilter, rawPage string) (_ *FeedPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", scope, attribute.String("feed.page", rawPage))
	defer func() { observability.EndSpan(span, err) }()

	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := pagination.Resolve(rawPage, count, pagination.PageSize)
	posts, err := s.posts.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, Page: page}, nil
}
