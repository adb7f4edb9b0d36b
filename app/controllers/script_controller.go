package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/scripttoken"
	"github.com/falconx-app/FalconX/internal/pkg/usercontext"
)

// HandleGetScriptToken returns both identifier formats the snippet can embed:
// the current base64 uid and the legacy fx_ id. The legacy id is persisted to
// the lookup table so later pings resolve without a user scan.
func HandleGetScriptToken(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	scriptID := scripttoken.GenerateScriptID(userID, scriptSecret)
	if err := repository.GetGlobalRepositories().ScriptToken.Save(scriptID, userID); err != nil {
		log.Printf("script: token save failed for user %s: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"uid":      scripttoken.EncodeUserID(userID),
		"scriptId": scriptID,
	})
}
