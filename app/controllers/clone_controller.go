package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/usercontext"
)

// HandleListClones returns the caller's detected clones, newest first.
func HandleListClones(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := parsePagination(c)

	repos := repository.GetGlobalRepositories()
	clones, err := repos.Clone.ListByUserID(userID, offset, limit)
	if err != nil {
		log.Printf("clones: list failed for user %s: %v", userID, err)
		return internalError(c)
	}
	total, err := repos.Clone.CountByUserID(userID)
	if err != nil {
		log.Printf("clones: count failed for user %s: %v", userID, err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"clones": clones,
		"total":  total,
	})
}

// HandleGetClone returns a single clone record owned by the caller.
func HandleGetClone(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c)
	}

	clone, err := repository.GetGlobalRepositories().Clone.GetByID(uint(id), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("clones: get failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(clone)
}

// HandleDeactivateClone hides a clone from the dashboard. The unique key on
// (user_id, clone_domain) spans inactive rows, so the next detection ping
// from that domain reactivates the same record instead of creating a new one.
func HandleDeactivateClone(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c)
	}

	err = repository.GetGlobalRepositories().Clone.SetActive(uint(id), userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("clones: deactivate failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "clone deactivated"})
}
