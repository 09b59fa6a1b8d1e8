package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ers-app/reimbursement-api/docs"
	"github.com/ers-app/reimbursement-api/internal/api/handler"
	"github.com/ers-app/reimbursement-api/internal/api/middleware"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Users          ports.UserService
	Reimbursements ports.ReimbursementService
	Auth           ports.AuthService
	Health         map[string]handler.Pinger
	SessionTTL     time.Duration
	CookieSecure   bool
	Logger         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(requestLogger(deps.Logger))

	authHandler := handler.NewAuthHandler(deps.Auth, deps.SessionTTL, deps.CookieSecure)
	userHandler := handler.NewUserHandler(deps.Users)
	reimbHandler := handler.NewReimbursementHandler(deps.Reimbursements)
	healthHandler := handler.NewHealthHandler(deps.Health)

	authenticated := middleware.Auth(deps.Auth)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	managerOnly := middleware.RBAC(domain.RoleManager)

	// --- Auth routes ---
	e.POST("/auth", authHandler.Login)
	e.GET("/auth", authHandler.Logout, middleware.OptionalAuth(deps.Auth))

	// --- Users (admin) ---
	users := e.Group("/users", authenticated, adminOnly)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create)
	users.PUT("", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Reimbursements ---
	reimbs := e.Group("/reimbursements", authenticated)
	reimbs.GET("", reimbHandler.List, managerOnly)
	reimbs.GET("/:id", reimbHandler.Get)
	reimbs.GET("/:id/events", reimbHandler.Events, managerOnly)
	reimbs.GET("/myreimb/:authorId", reimbHandler.ByAuthor)
	reimbs.GET("/filtertype/:type", reimbHandler.ByType, managerOnly)
	reimbs.GET("/filterstatus/:status", reimbHandler.ByStatus, managerOnly)
	reimbs.POST("", reimbHandler.Create)
	reimbs.PUT("", reimbHandler.Update)
	reimbs.PUT("/status", reimbHandler.Resolve, managerOnly)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
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
