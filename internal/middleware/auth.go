// Package middleware provides request identity, logging, rate limiting and tracing middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookieName carries the signed session token for browser clients.
const SessionCookieName = "yatube_session"

const (
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"
	identityLocal = "identity"
)

// ErrSessionRevoked is returned for tokens invalidated by logout.
var ErrSessionRevoked = errors.New("session has been revoked")

// Identity is the viewer of a request. The zero value is an anonymous visitor.
type Identity struct {
	UserID   uint
	Username string
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

// Is reports whether the identity is the given user.
func (i Identity) Is(userID uint) bool {
	return i.IsAuthenticated() && i.UserID == userID
}

// SessionClaims are the JWT claims stored in the session cookie.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sessions issues and validates session tokens. Revocations are kept in Redis
// when a client is configured and are skipped otherwise.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewSessions creates a session manager signing with secret.
func NewSessions(secret string, ttl time.Duration, rdb *redis.Client) *Sessions {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, redis: rdb, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the user.
func (s *Sessions) Issue(userID uint, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates the token and returns its claims.
func (s *Sessions) Parse(ctx context.Context, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}

	if s.redis != nil && claims.ID != "" {
		n, err := s.redis.Exists(ctx, revokedKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, ErrSessionRevoked
		}
	}
	return claims, nil
}

// Identity converts claims into a request identity.
func (c *SessionClaims) Identity() (Identity, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, errors.New("invalid user ID in token")
	}
	return Identity{UserID: uint(id), Username: c.Username}, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (s *Sessions) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.redis == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(claims.ID), "1", ttl).Err()
}

func revokedKey(jti string) string {
	return "session:revoked:" + jti
}

func tokenFromRequest(c *fiber.Ctx) string {
	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Authenticate resolves the request identity from the session cookie or a
// Bearer header. Invalid tokens are dropped and the request continues anonymously.
func (s *Sessions) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return c.Next()
		}

		claims, err := s.Parse(c.UserContext(), token)
		if err != nil {
			c.ClearCookie(SessionCookieName)
			return c.Next()
		}
		identity, err := claims.Identity()
		if err != nil {
			c.ClearCookie(SessionCookieName)
			return c.Next()
		}

		c.Locals(identityLocal, identity)
		c.Locals("userID", identity.UserID)
		c.Locals("sessionClaims", claims)
		return c.Next()
	}
}

// IdentityFrom returns the request identity; anonymous when none was resolved.
func IdentityFrom(c *fiber.Ctx) Identity {
	if id, ok := c.Locals(identityLocal).(Identity); ok {
		return id
	}
	return Identity{}
}

// ClaimsFrom returns the parsed session claims, if any.
func ClaimsFrom(c *fiber.Ctx) *SessionClaims {
	claims, _ := c.Locals("sessionClaims").(*SessionClaims)
	return claims
}

// LoginURL builds the login redirect carrying the original path as "next".
func LoginURL(loginPath, next string) string {
	if next == "" {
		return loginPath
	}
	escaped := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	return loginPath + "?next=" + escaped
}

// LoginRequired redirects anonymous visitors to loginPath.
func LoginRequired(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c).IsAuthenticated() {
			return c.Next()
		}
		return c.Redirect(LoginURL(loginPath, c.OriginalURL()), fiber.StatusFound)
	}
}
