package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/app/controllers"
	"github.com/falconx-app/FalconX/internal/pkg/middleware"
	"github.com/falconx-app/FalconX/internal/pkg/ratelimit"
)

// ApiRouter installs the public snippet-facing endpoints. These are called
// cross-origin from arbitrary (possibly cloned) pages, so CORS is wide open
// and abuse control happens through the rate limiter instead.
type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/healthz", controllers.HandleHealth)

	v1 := api.Group("/v1",
		middleware.PublicCORS(),
		middleware.RateLimit(h.deps.Limiter, ratelimit.TierPublic),
	)
	v1.Post("/detect", controllers.HandleDetect)
	v1.Post("/action", controllers.HandleResolveAction)

	// Credential endpoints get the tightest limit: they are the ones worth
	// brute-forcing.
	authGroup := api.Group("/v1/auth",
		middleware.ProtectedCORS(h.deps.AllowedOrigins),
		middleware.RateLimit(h.deps.Limiter, ratelimit.TierCritical),
	)
	authGroup.Post("/register", controllers.HandleRegister)
	authGroup.Post("/login", controllers.HandleLogin)
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
