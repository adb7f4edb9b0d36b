package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/internal/pkg/cache"
	"github.com/falconx-app/FalconX/internal/pkg/database"
	"github.com/falconx-app/FalconX/internal/pkg/statistics"
)

// HandleDashboardStats returns the cached overview totals for the dashboard.
func HandleDashboardStats(c *fiber.Ctx) error {
	return c.JSON(statistics.GetStatistics())
}

// HandleHealth reports liveness of the service and its backing stores.
// The endpoint itself always answers; degraded dependencies show up in the
// per-component fields with a 503.
func HandleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
	}

	cacheStatus := "ok"
	if err := cache.GetClient().Ping(c.Context()).Err(); err != nil {
		cacheStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" || cacheStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":    dbStatus == "ok" && cacheStatus == "ok",
		"database":  dbStatus,
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
