// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("This field is required.")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return errors.New("Ensure this value has at most 150 characters.")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

// ValidatePassword checks length, rejects all-digit passwords and passwords containing the username.
func ValidatePassword(password, username string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.New("This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("This password is too long.")
	}
	if strings.Trim(password, "0123456789") == "" {
		return errors.New("This password is entirely numeric.")
	}
	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return errors.New("The password is too similar to the username.")
	}
	return nil
}

// ValidateEmail accepts an empty address; email is optional.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return errors.New("Enter a valid email address.")
	}
	return nil
}
