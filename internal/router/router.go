package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework handles routing
	"github.com/redis/go-redis/v9"

	"github.com/vescom/vescom-api/internal/config"
	"github.com/vescom/vescom-api/internal/handler"
	"github.com/vescom/vescom-api/internal/middleware"
	"github.com/vescom/vescom-api/internal/obs"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	Personas    *handler.PersonaHandler
	Cameras     *handler.CameraHandler
	Recognition *handler.RecognitionHandler
}

// RegisterRoutes registers every route of the API on the provided Echo
// instance. Only /healthz, /metrics and the login endpoint are public;
// everything else sits behind the JWT middleware, so no protected
// operation is reachable without an authenticated session.
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.Use(obs.Instrument())

	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
	// Prometheus scrape endpoint.
	e.GET("/metrics", obs.Handler())

	// Login is the only unauthenticated API operation.
	e.POST("/v1/auth/login", h.Auth.Login)

	auth := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))

	// ---- Admins ----
	auth.GET("/auth/admins/me", h.Auth.Me)
	auth.POST("/auth/admins", h.Auth.CreateAdmin)
	auth.GET("/auth/admins", h.Auth.ListAdmins)
	auth.GET("/auth/admins/:id", h.Auth.GetAdmin)
	auth.PUT("/auth/admins/:id", h.Auth.UpdateAdmin)
	// DELETE deactivates; admin rows are never removed.
	auth.DELETE("/auth/admins/:id", h.Auth.DeactivateAdmin)

	// ---- Personas ----
	auth.POST("/recognition/personas", h.Personas.CreatePersona)
	auth.GET("/recognition/personas", h.Personas.ListPersonas)
	auth.GET("/recognition/personas/:id", h.Personas.GetPersona)
	auth.PUT("/recognition/personas/:id", h.Personas.UpdatePersona)
	// DELETE is a hard delete: personas are the one entity that really goes away.
	auth.DELETE("/recognition/personas/:id", h.Personas.DeletePersona)
	auth.POST("/recognition/personas/:id/face", h.Personas.UploadFace)

	// ---- Identification & events ----
	auth.POST("/recognition/identify", h.Recognition.Identify)
	// Event listings are the hottest read path; cache them when Redis is up.
	cacheCfg := config.LoadCacheConfig()
	eventCache := middleware.NewRedisCache(cacheCfg, rdb)
	auth.GET("/recognition/events", h.Recognition.ListEvents, eventCache)
	auth.GET("/recognition/events/summary", h.Recognition.EventSummary, eventCache)
	auth.GET("/recognition/report", h.Recognition.Report)

	// ---- Cameras ----
	auth.POST("/cameras", h.Cameras.CreateCamera)
	auth.GET("/cameras", h.Cameras.ListCameras)
	auth.GET("/cameras/:id", h.Cameras.GetCamera)
	auth.PUT("/cameras/:id", h.Cameras.UpdateCamera)
	// DELETE deactivates; cameras referenced by events must keep resolving.
	auth.DELETE("/cameras/:id", h.Cameras.DeactivateCamera)
}
