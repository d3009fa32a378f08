package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hirocks/internal/observability"
	"hirocks/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the quota store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen lets the request through when Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed answers 503 when Redis is unavailable.
	FailClosed
)

// Quota is a named fixed-window request budget.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a single quota check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// INCR and PEXPIRE run together so a counter can never outlive its window.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// RateLimiter enforces quotas stored in Redis. A disabled limiter admits
// every request.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter creates a limiter backed by rdb.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// RateLimitEnabled reports whether quotas apply in env. Local and test runs
// skip them.
func RateLimitEnabled(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "development", "test":
		return false
	}
	return true
}

// Allow counts one request by subject against q.
func (l *RateLimiter) Allow(ctx context.Context, q Quota, subject string) (Decision, error) {
	if !l.enabled || q.Limit <= 0 {
		return Decision{Allowed: true, Remaining: q.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errors.New("rate limit store is not configured")
	}

	key := fmt.Sprintf("rl:%s:%s", q.Name, subject)
	res, err := fixedWindow.Run(ctx, l.rdb, []string{key}, q.Window.Milliseconds()).Int64Slice()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}

	count, ttl := res[0], res[1]
	return Decision{
		Allowed:   count <= int64(q.Limit),
		Remaining: max(q.Limit-int(count), 0),
		ResetIn:   time.Duration(ttl) * time.Millisecond,
	}, nil
}

// Handler returns a Fiber middleware enforcing q. Requests are keyed by the
// authenticated user when there is one, otherwise by remote IP.
func (l *RateLimiter) Handler(q Quota, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enabled || q.Limit <= 0 {
			return c.Next()
		}
		ctx := c.UserContext()

		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			subject = fmt.Sprintf("user:%d", uid)
		}

		d, err := l.Allow(ctx, q, subject)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit fail-closed", "quota", q.Name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "잠시 후 다시 시도해주세요.",
					Code:  "RATE_LIMIT_UNAVAILABLE",
				})
			}
			Logger.WarnContext(ctx, "rate limit check skipped", "quota", q.Name, "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
