package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/scripttoken"
	"github.com/falconx-app/FalconX/internal/pkg/securityevent"
)

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and seeds the legacy script-token lookup
// table so the O(n) resolver scan is never needed for new accounts.
func HandleRegister(c *fiber.Ctx) error {
	var payload registerPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c)
	}

	user, err := models.CreateUser(payload.Name, payload.Email, payload.Password)
	if err != nil {
		return badRequest(c)
	}

	repos := repository.GetGlobalRepositories()
	if err := repos.User.Create(user); err != nil {
		log.Printf("register: user create failed: %v", err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "Account could not be created",
		})
	}

	scriptID := scripttoken.GenerateScriptID(user.ID, scriptSecret)
	if err := repos.ScriptToken.Save(scriptID, user.ID); err != nil {
		log.Printf("register: script token save failed for user %s: %v", user.ID, err)
	}

	token, err := authManager.Issue(user.ID, user.Email)
	if err != nil {
		log.Printf("register: token issue failed: %v", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// HandleLogin verifies credentials and issues a bearer token.
func HandleLogin(c *fiber.Ctx) error {
	var payload loginPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c)
	}
	if payload.Email == "" || payload.Password == "" {
		return badRequest(c)
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmail(payload.Email)
	if err != nil || !user.CheckPassword(payload.Password) {
		securityevent.Log(securityevent.Event{
			Type:      securityevent.TypeAuthFailure,
			IPAddress: c.IP(),
			Path:      c.Path(),
		})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Invalid credentials",
		})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "User inactive",
		})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Printf("login: failed to update last login for user %s: %v", user.ID, err)
	}

	token, err := authManager.Issue(user.ID, user.Email)
	if err != nil {
		log.Printf("login: token issue failed: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}
