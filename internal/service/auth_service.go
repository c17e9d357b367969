package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the registration form.
type SignupInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("Please enter a correct username and password. Note that both fields may be case-sensitive.")

type AuthService struct {
	users    repository.UserRepository
	sessions *middleware.Sessions
	cost     int
}

func NewAuthService(users repository.UserRepository, sessions *middleware.Sessions) *AuthService {
	return &AuthService{users: users, sessions: sessions, cost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost for tests and seeding.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Signup validates the form and creates the user.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	fields := map[string]string{}
	if err := validation.ValidateUsername(in.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePassword(in.Password, in.Username); err != nil {
		fields["password1"] = err.Error()
	}
	if in.Password != in.PasswordConfirm {
		fields["password2"] = "The two password fields didn't match."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, &models.AppError{Code: models.CodeUnauthorized, Message: ErrInvalidCredentials.Error(), Err: ErrInvalidCredentials}
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, &models.AppError{Code: models.CodeUnauthorized, Message: ErrInvalidCredentials.Error(), Err: ErrInvalidCredentials}
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	token, exp, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return "", time.Time{}, models.NewInternalError(err)
	}
	return token, exp, nil
}

// ParseToken validates a session token.
func (s *AuthService) ParseToken(ctx context.Context, token string) (*middleware.SessionClaims, error) {
	claims, err := s.sessions.Parse(ctx, token)
	if err != nil {
		return nil, models.NewUnauthorizedError(err.Error())
	}
	return claims, nil
}

// Revoke ends a session before it expires.
func (s *AuthService) Revoke(ctx context.Context, claims *middleware.SessionClaims) error {
	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
