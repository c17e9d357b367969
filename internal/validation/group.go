package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxGroupSlugLength  = 50
	MaxGroupTitleLength = 200
)

var groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateGroupSlug enforces the URL-safe slug format used in /group/<slug>/.
func ValidateGroupSlug(slug string) error {
	if slug == "" {
		return errors.New("slug is required")
	}
	if len(slug) > MaxGroupSlugLength {
		return errors.New("slug must not exceed 50 characters")
	}
	if !groupSlugRegex.MatchString(slug) {
		return errors.New("slug may contain only letters, numbers, underscores and hyphens")
	}
	return nil
}

func ValidateGroupTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > MaxGroupTitleLength {
		return errors.New("title must not exceed 200 characters")
	}
	return nil
}
