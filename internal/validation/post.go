package validation

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrTextRequired = errors.New("This field is required.")
	ErrInvalidGroup = errors.New("Select a valid choice. That choice is not one of the available choices.")
)

// PostText trims raw form text and rejects blank input.
func PostText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrTextRequired
	}
	return text, nil
}

// GroupChoice parses the group select value. Empty means no group.
func GroupChoice(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidGroup
	}
	return uint(id), nil
}
