package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/app/controllers"
	"github.com/falconx-app/FalconX/internal/pkg/middleware"
	"github.com/falconx-app/FalconX/internal/pkg/ratelimit"
)

// DashboardRouter installs the authenticated dashboard API. CORS is locked to
// the configured dashboard origins and every route requires a valid session.
type DashboardRouter struct {
	deps Deps
}

func (h DashboardRouter) InstallRouter(app *fiber.App) {
	dashboard := app.Group("/api/dashboard",
		middleware.ProtectedCORS(h.deps.AllowedOrigins),
		middleware.RateLimit(h.deps.Limiter, ratelimit.TierProtected),
		middleware.RequireSession(h.deps.Auth),
	)

	// Plan usage carries billing-relevant data, so it sits behind the
	// critical tier on top of the protected one.
	dashboard.Get("/usage",
		middleware.RateLimit(h.deps.Limiter, ratelimit.TierCritical),
		controllers.HandleGetUsage,
	)

	dashboard.Get("/script", controllers.HandleGetScriptToken)
	dashboard.Get("/stats", controllers.HandleDashboardStats)

	dashboard.Get("/domains", controllers.HandleListDomains)
	dashboard.Post("/domains", controllers.HandleCreateDomain)
	dashboard.Delete("/domains/:id", controllers.HandleDeleteDomain)

	dashboard.Get("/clones", controllers.HandleListClones)
	dashboard.Get("/clones/:id", controllers.HandleGetClone)
	dashboard.Post("/clones/:id/deactivate", controllers.HandleDeactivateClone)

	dashboard.Get("/actions", controllers.HandleListActions)
	dashboard.Post("/actions", controllers.HandleCreateAction)
	dashboard.Put("/actions/:id", controllers.HandleUpdateAction)
	dashboard.Delete("/actions/:id", controllers.HandleDeleteAction)
}

func NewDashboardRouter(deps Deps) *DashboardRouter {
	return &DashboardRouter{deps: deps}
}
