package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/internal/pkg/securityevent"
	"github.com/falconx-app/FalconX/internal/pkg/usercontext"
)

// Usage alert thresholds in percent.
const (
	usageWarningThreshold = 80
	usageDangerThreshold  = 100
)

// HandleGetUsage reports the caller's plan usage. The optional userId query
// parameter defaults to the authenticated caller; requesting anyone else's
// usage is a logged security event and a 403, never an information leak.
func HandleGetUsage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	requested := c.Query("userId", userCtx.UserID)
	if requested != userCtx.UserID {
		securityevent.Log(securityevent.Event{
			Type:        securityevent.TypeCrossUserAccess,
			UserID:      userCtx.UserID,
			RequestedID: requested,
			IPAddress:   c.IP(),
			Path:        c.Path(),
		})
		return forbidden(c)
	}

	usage, err := usageMeter.CheckLimits(userCtx.UserID)
	if err != nil {
		// Fail closed: a metering failure must not read as available quota.
		log.Printf("usage: limit check failed for user %s: %v", userCtx.UserID, err)
		return internalError(c)
	}

	progress := 0
	if usage.Limit > 0 {
		progress = usage.CurrentCount * 100 / usage.Limit
	}

	alertLevel := "success"
	switch {
	case progress >= usageDangerThreshold:
		alertLevel = "danger"
	case progress >= usageWarningThreshold:
		alertLevel = "warning"
	}

	return c.JSON(fiber.Map{
		"plan": fiber.Map{
			"slug":                 usage.PlanSlug,
			"name":                 usage.PlanName,
			"cloneLimit":           usage.Limit,
			"domainLimit":          usage.DomainLimit,
			"extraClonePriceCents": usage.ExtraClonePriceCents,
		},
		"usage": fiber.Map{
			"currentCount":  usage.CurrentCount,
			"limit":         usage.Limit,
			"remaining":     usage.Remaining,
			"extraUsed":     usage.ExtraUsed,
			"blockedClones": usage.BlockedClones,
			"canDetectMore": usage.CanDetectMore,
			"progress":      progress,
			"alertLevel":    alertLevel,
		},
		"resetDate": usage.ResetDate.UTC().Format(time.RFC3339),
	})
}
