package middleware

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders attaches the baseline security response headers to every
// response regardless of route.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		return c.Next()
	}
}

// PublicCORS is the permissive profile for the public detection/action
// endpoints. The tracking snippet runs on arbitrary domains, cloned ones
// included, so any origin may POST; credentials are never allowed here.
func PublicCORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Next()
	}
}

// ProtectedCORS is the restrictive profile for dashboard APIs: the caller's
// Origin is echoed back only when it matches the allow-list exactly or is a
// subdomain of an allow-listed host with the same scheme. Everything else
// gets "null", which browsers treat as a CORS failure.
func ProtectedCORS(allowedOrigins []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		value := "null"
		if origin != "" && OriginAllowed(allowedOrigins, origin) {
			value = origin
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, value)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
		c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Next()
	}
}

// OriginAllowed reports whether an Origin header value matches the configured
// allow-list, either exactly or as a subdomain of an allow-listed host with
// the same scheme.
func OriginAllowed(allowed []string, origin string) bool {
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if a == origin {
			return true
		}
		au, err := url.Parse(a)
		if err != nil || au.Scheme == "" || au.Host == "" {
			continue
		}
		if au.Scheme == o.Scheme && strings.HasSuffix(o.Hostname(), "."+au.Hostname()) {
			return true
		}
	}
	return false
}

// ParseAllowedOrigins splits the comma-separated CORS_ALLOWED_ORIGINS value.
func ParseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
