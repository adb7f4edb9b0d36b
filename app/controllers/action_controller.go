package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/usercontext"
)

type actionPayload struct {
	CloneID            *uint                `json:"cloneId"`
	ActionType         string               `json:"actionType"`
	RedirectURL        string               `json:"redirectUrl"`
	CustomMessage      string               `json:"customMessage"`
	RedirectPercentage *int                 `json:"redirectPercentage"`
	TriggerParams      models.TriggerParams `json:"triggerParams"`
	IsActive           *bool                `json:"isActive"`
}

// HandleListActions returns all countermeasure configurations of the caller.
func HandleListActions(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	actions, err := repository.GetGlobalRepositories().CloneAction.ListByUserID(userID)
	if err != nil {
		log.Printf("actions: list failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"actions": actions})
}

// HandleCreateAction stores a new countermeasure. Percentage defaults to 100
// (always fire) when omitted.
func HandleCreateAction(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var payload actionPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c)
	}

	action := &models.CloneAction{
		UserID:             userID,
		CloneID:            payload.CloneID,
		ActionType:         payload.ActionType,
		RedirectURL:        payload.RedirectURL,
		CustomMessage:      payload.CustomMessage,
		RedirectPercentage: 100,
		TriggerParams:      payload.TriggerParams,
		IsActive:           true,
	}
	if payload.RedirectPercentage != nil {
		action.RedirectPercentage = *payload.RedirectPercentage
	}
	if payload.IsActive != nil {
		action.IsActive = *payload.IsActive
	}
	if err := action.Validate(); err != nil {
		return badRequest(c)
	}

	if err := repository.GetGlobalRepositories().CloneAction.Create(action); err != nil {
		log.Printf("actions: create failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(action)
}

// HandleUpdateAction applies partial updates to an existing countermeasure.
func HandleUpdateAction(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c)
	}

	var payload actionPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c)
	}

	repos := repository.GetGlobalRepositories()
	action, err := repos.CloneAction.GetByID(uint(id), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("actions: get failed for user %s: %v", userID, err)
		return internalError(c)
	}

	if payload.ActionType != "" {
		action.ActionType = payload.ActionType
	}
	if payload.RedirectURL != "" {
		action.RedirectURL = payload.RedirectURL
	}
	if payload.CustomMessage != "" {
		action.CustomMessage = payload.CustomMessage
	}
	if payload.RedirectPercentage != nil {
		action.RedirectPercentage = *payload.RedirectPercentage
	}
	if payload.TriggerParams != nil {
		action.TriggerParams = payload.TriggerParams
	}
	if payload.IsActive != nil {
		action.IsActive = *payload.IsActive
	}
	if err := action.Validate(); err != nil {
		return badRequest(c)
	}

	if err := repos.CloneAction.Update(action); err != nil {
		log.Printf("actions: update failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(action)
}

// HandleDeleteAction removes a countermeasure configuration.
func HandleDeleteAction(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c)
	}

	err = repository.GetGlobalRepositories().CloneAction.Delete(uint(id), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("actions: delete failed for user %s: %v", userID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "action deleted"})
}
