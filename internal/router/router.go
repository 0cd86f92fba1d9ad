package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/mgmcelwee/evony/internal/config"
	"github.com/mgmcelwee/evony/internal/handler"    // import the handlers that implement business logic
	"github.com/mgmcelwee/evony/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/mgmcelwee/evony/internal/repository"
)

// Handlers bundles every handler the router needs so callers wire the
// application up in one place.
type Handlers struct {
	Auth *handler.AuthHandler
	Raid *handler.RaidHandler
	Mail *handler.MailHandler
	City *handler.CityHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth; everything else in the API requires a
// valid access token issued here.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle account creation at /v1/auth/register.
	// Registration also provisions the player's starter city.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle login at /v1/auth/login.
	g.POST("/login", a.Login)
}

// RegisterGame registers all raid, city and mail routes under /v1.  Every
// handler on this group runs the JWTAuth middleware followed by a role
// check, so requests without a valid token never reach the engine.  Raid
// creation is additionally rate limited so a script cannot flood the march
// queue.
func RegisterGame(e *echo.Echo, h Handlers, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	v1 := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the configured secret.
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	// Both players and admins may call the game endpoints; per-route checks
	// inside the engine decide what each actor is allowed to see.
	v1.Use(middleware.RequireRole(repository.RolePlayer, repository.RoleAdmin))

	// City overview with resource stocks projected to the current tick.
	v1.GET("/cities", h.City.List)

	limiter := middleware.NewTokenBucket(rlCfg, rdb)
	v1.POST("/raids", h.Raid.Create, limiter)
	v1.GET("/raids", h.Raid.List)
	v1.GET("/raids/:id", h.Raid.Get)
	v1.GET("/raids/:id/report", h.Raid.Report)
	v1.POST("/raids/:id/recall", h.Raid.Recall)

	v1.GET("/mail", h.Mail.Inbox)
	v1.GET("/mail/unread", h.Mail.Unread)
	v1.POST("/mail/:id/read", h.Mail.MarkRead)

	// Manual sweep for operators; the background sweeper covers normal
	// operation, so this stays admin-only.
	admin := v1.Group("", middleware.RequireRole(repository.RoleAdmin))
	admin.POST("/tick", h.Raid.Tick)
}
