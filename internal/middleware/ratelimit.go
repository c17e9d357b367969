package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrLimiterUnavailable means the counter store could not be reached.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// RateLimitRule names a bucket of requests and its allowance.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// CheckRateLimit increments the counter for resource/id and reports whether the
// request is within limit. The counter expires one window after its first hit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrLimiterUnavailable
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces rule per viewer (or per IP for anonymous visitors).
// A disabled limiter passes every request through; development and test
// configurations use that to avoid throttling local work.
func RateLimit(rdb *redis.Client, rule RateLimitRule, enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if viewer := IdentityFrom(c); viewer.IsAuthenticated() {
			id = fmt.Sprintf("user:%d", viewer.UserID)
		}
		resource := rule.Name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, rule.Limit, rule.Window)
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return fiber.NewError(fiber.StatusServiceUnavailable, "rate limit unavailable")
			}
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(rule.Window.Seconds())))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
