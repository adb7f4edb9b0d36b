package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/internal/pkg/auth"
	"github.com/falconx-app/FalconX/internal/pkg/detection"
	"github.com/falconx-app/FalconX/internal/pkg/metering"
	"github.com/falconx-app/FalconX/internal/pkg/scripttoken"
)

// Shared pipeline components, injected once at router installation so
// handlers stay thin adapters and tests can wire fakes.
var (
	detectionEngine *detection.Engine
	tokenResolver   *scripttoken.Resolver
	usageMeter      *metering.Meter
	authManager     *auth.Manager
	scriptSecret    string
)

// InitializeControllers wires the shared components used by all handlers.
func InitializeControllers(
	engine *detection.Engine,
	resolver *scripttoken.Resolver,
	meter *metering.Meter,
	mgr *auth.Manager,
	secret string,
) {
	detectionEngine = engine
	tokenResolver = resolver
	usageMeter = meter
	authManager = mgr
	scriptSecret = secret
}

// Generic error responders. Client-facing messages stay generic on purpose;
// the interesting detail goes to the logs.

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "bad_request",
		"message": "Invalid request",
	})
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":   "forbidden",
		"message": "Access denied",
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "not_found",
		"message": "Resource not found",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":     "internal_server_error",
		"message":   "Something went wrong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 25)
	if limit < 1 || limit > 100 {
		limit = 25
	}
	return (page - 1) * limit, limit
}
