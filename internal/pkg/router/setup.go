package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/internal/pkg/auth"
	"github.com/falconx-app/FalconX/internal/pkg/ratelimit"
)

// Router installs a set of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps carries the shared components routers attach as middleware.
type Deps struct {
	Limiter        *ratelimit.Limiter
	Auth           *auth.Manager
	AllowedOrigins []string
}

// InstallRouter registers the public snippet API first, then the protected
// dashboard API which layers CORS, rate limiting and session checks on top.
func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewApiRouter(deps), NewDashboardRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
