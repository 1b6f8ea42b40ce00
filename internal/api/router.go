// Package api is the HTTP surface of the parking API used for local
// development and as the client's end-to-end test double.
package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/api/handler"
	"github.com/parkspace/parking-client/internal/api/middleware"
	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/metrics"
)

// BasePath prefixes every API route.
const BasePath = "/api"

// Deps are the services the router wires into handlers.
type Deps struct {
	Auth  *backend.AuthService
	Slots *backend.SlotService
	// Ready lists the dependencies checked by /health/ready.
	Ready map[string]handler.Pinger
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Metrics())

	authHandler := handler.NewAuthHandler(d.Auth)
	slotHandler := handler.NewSlotHandler(d.Slots)
	healthHandler := handler.NewHealthHandler(d.Ready)
	requireAuth := middleware.Auth(d.Auth)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	g := e.Group(BasePath)

	// --- Auth routes ---
	g.POST("/register", authHandler.Register)
	g.POST("/login", authHandler.Login)

	// --- Slot routes ---
	g.GET("/slots", slotHandler.List, requireAuth)
	g.POST("/slots", slotHandler.Create, requireAuth, adminOnly)
	g.DELETE("/slots/:id", slotHandler.Delete, requireAuth, adminOnly)
	g.POST("/book/:id", slotHandler.Book, requireAuth)
	g.POST("/cancel/:id", slotHandler.Cancel, requireAuth)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
