package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type GroupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

// Create adds a group. Groups are created by operators, not from the web UI.
func (s *GroupService) Create(ctx context.Context, slug, title, description string) (*models.Group, error) {
	slug = strings.TrimSpace(slug)
	title = strings.TrimSpace(title)

	fields := map[string]string{}
	if err := validation.ValidateGroupSlug(slug); err != nil {
		fields["slug"] = err.Error()
	}
	if err := validation.ValidateGroupTitle(title); err != nil {
		fields["title"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	group := &models.Group{Slug: slug, Title: title, Description: strings.TrimSpace(description)}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groups.GetBySlug(ctx, slug)
}
