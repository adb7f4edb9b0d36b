package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/detection"
	"github.com/falconx-app/FalconX/internal/pkg/usercontext"
)

type createDomainPayload struct {
	Domain string `json:"domain"`
}

// HandleListDomains returns the caller's whitelist, active and inactive.
func HandleListDomains(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	domains, err := repository.GetGlobalRepositories().AllowedDomain.ListByUserID(userID)
	if err != nil {
		log.Printf("domains: list failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"domains": domains})
}

// HandleCreateDomain adds a whitelist entry, enforcing the plan's domain limit.
func HandleCreateDomain(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var payload createDomainPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c)
	}

	domain := detection.NormalizeDomain(payload.Domain)
	if domain == "" {
		return badRequest(c)
	}

	usage, err := usageMeter.CheckLimits(userID)
	if err != nil {
		log.Printf("domains: limit check failed for user %s: %v", userID, err)
		return internalError(c)
	}

	repos := repository.GetGlobalRepositories()
	count, err := repos.AllowedDomain.CountActiveByUserID(userID)
	if err != nil {
		log.Printf("domains: count failed for user %s: %v", userID, err)
		return internalError(c)
	}
	if count >= int64(usage.DomainLimit) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "limit_reached",
			"message": "Domain limit for the current plan reached",
		})
	}

	entry := &models.AllowedDomain{UserID: userID, Domain: domain, IsActive: true}
	if err := entry.Validate(); err != nil {
		return badRequest(c)
	}
	if err := repos.AllowedDomain.Create(entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "Domain already configured",
			})
		}
		log.Printf("domains: create failed for user %s: %v", userID, err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleDeleteDomain soft-deactivates a whitelist entry. The row stays for
// the audit trail; inactive entries never authorize.
func HandleDeleteDomain(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c)
	}

	err = repository.GetGlobalRepositories().AllowedDomain.Deactivate(uint(id), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("domains: deactivate failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "domain deactivated"})
}
