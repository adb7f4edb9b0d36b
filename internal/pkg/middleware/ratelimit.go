package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/internal/pkg/ratelimit"
	"github.com/falconx-app/FalconX/internal/pkg/securityevent"
)

// RateLimit rejects requests over the tier's quota with 429, Retry-After and
// remaining-quota headers. The limiter instance is injected so tests and
// multi-instance deployments can bring their own.
func RateLimit(limiter *ratelimit.Limiter, tier ratelimit.Tier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := ratelimit.ClientKey(c.IP(), c.Get(fiber.HeaderUserAgent))
		res := limiter.Check(key, tier)

		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			securityevent.Log(securityevent.Event{
				Type:      securityevent.TypeRateLimited,
				IPAddress: c.IP(),
				Path:      c.Path(),
				Detail:    string(tier),
			})
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
		}
		return c.Next()
	}
}
