package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/falconx-app/FalconX/app/controllers"
	"github.com/falconx-app/FalconX/app/repository"
	"github.com/falconx-app/FalconX/internal/pkg/auth"
	"github.com/falconx-app/FalconX/internal/pkg/cache"
	"github.com/falconx-app/FalconX/internal/pkg/database"
	"github.com/falconx-app/FalconX/internal/pkg/detection"
	"github.com/falconx-app/FalconX/internal/pkg/env"
	"github.com/falconx-app/FalconX/internal/pkg/events"
	"github.com/falconx-app/FalconX/internal/pkg/metering"
	"github.com/falconx-app/FalconX/internal/pkg/middleware"
	"github.com/falconx-app/FalconX/internal/pkg/ratelimit"
	"github.com/falconx-app/FalconX/internal/pkg/router"
	"github.com/falconx-app/FalconX/internal/pkg/scripttoken"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	limiter := newLimiter()
	limiter.StartSweeper(time.Minute)

	repos := repository.GetGlobalRepositories()
	scriptSecret := env.GetEnv("SCRIPT_TOKEN_SECRET", "")
	resolver := scripttoken.NewResolver(repos.ScriptToken, repos.User, scriptSecret)
	meter := metering.NewMeter(repos.Subscription)
	selector := detection.NewSelector(repos.CloneAction)

	var engineOpts []detection.EngineOption
	if amqpURL := env.GetEnv("AMQP_URL", ""); amqpURL != "" {
		engineOpts = append(engineOpts, detection.WithPublisher(events.NewPublisher(amqpURL)))
	}
	engine := detection.NewEngine(repos.AllowedDomain, repos.Clone, meter, selector, engineOpts...)

	authMgr := auth.NewManager(env.GetEnv("JWT_SECRET", ""), 24*time.Hour)
	controllers.InitializeControllers(engine, resolver, meter, authMgr, scriptSecret)

	app := fiber.New(newFiberConfig())
	app.Use(recover.New(), logger.New())
	app.Use(middleware.SecurityHeaders())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Limiter:        limiter,
		Auth:           authMgr,
		AllowedOrigins: middleware.ParseAllowedOrigins(env.GetEnv("DASHBOARD_ORIGINS", "https://app.falconx.io")),
	})

	return app
}

// newFiberConfig honours forwarded client IPs when the service sits behind
// a load balancer. TRUSTED_PROXIES lists the proxy addresses or CIDR ranges
// allowed to set X-Forwarded-For; without it the peer address is used as-is,
// which would funnel every caller into a single rate-limit bucket.
func newFiberConfig() fiber.Config {
	cfg := fiber.Config{AppName: "FalconX"}
	for _, p := range strings.Split(env.GetEnv("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.TrustedProxies = append(cfg.TrustedProxies, p)
		}
	}
	if len(cfg.TrustedProxies) > 0 {
		cfg.EnableTrustedProxyCheck = true
		cfg.ProxyHeader = fiber.HeaderXForwardedFor
	}
	return cfg
}

// newLimiter builds the request throttle, backed by Redis when the
// deployment runs more than one instance.
func newLimiter() *ratelimit.Limiter {
	if env.GetEnv("RATE_LIMIT_SHARED", "false") != "true" {
		return ratelimit.New(nil)
	}

	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	store := redisstorage.New(redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 2, // Separate database for rate limiting
		Reset:    false,
	})
	return ratelimit.New(nil, ratelimit.WithStore(store))
}
