package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/onhs/olms/docs"
	"github.com/onhs/olms/internal/api/handler"
	"github.com/onhs/olms/internal/api/middleware"
	"github.com/onhs/olms/internal/core/ports"
	"github.com/onhs/olms/internal/core/service"
	"github.com/onhs/olms/internal/core/session"
	"github.com/onhs/olms/internal/pkg/config"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Config       *config.Config
	Log          zerolog.Logger
	Codec        *session.Codec
	Users        ports.UserRepository
	Settings     ports.SettingsCache
	SettingsRepo ports.SettingsRepository
	Audit        ports.AuditSink
	// Health maps dependency names to readiness checks. A nil entry is
	// reported as disabled.
	Health map[string]handler.Pinger
	// Registry receives the HTTP request metrics. Nil disables them.
	Registry *prometheus.Registry
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
	if d.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "olms",
			Registerer: d.Registry,
		}))
	}

	// --- Dependencies ---
	policy := d.Config.SessionPolicy()
	cookie := d.Config.CookiePolicy()

	var loader ports.IdentityLoader = service.NewTokenIdentityLoader(d.Users, d.Log.With().Str("component", "identity").Logger())
	if d.Config.AuthTestBypass {
		d.Log.Warn().Msg("AUTH_TEST_BYPASS enabled, requests authenticate as the first active user")
		loader = service.NewBypassIdentityLoader(d.Users, d.Log.With().Str("component", "identity").Logger())
	}

	gate := middleware.NewMaintenanceGate(d.Settings, d.Log.With().Str("component", "maintenance").Logger())
	refresher := middleware.NewSessionRefresher(d.Codec, policy, cookie, d.Log.With().Str("component", "refresh").Logger())
	authenticator := middleware.NewAuthenticator(d.Codec, loader, gate, refresher, cookie, d.Log.With().Str("component", "auth").Logger())
	guard := middleware.NewGuard(cookie)
	recorder := middleware.NewAuditRecorder(d.Audit, d.Log.With().Str("component", "audit").Logger())
	authn := authenticator.Middleware()

	authService := service.NewAuthService(d.Users, d.Settings, d.Codec, policy, d.Log.With().Str("component", "login").Logger())
	settingsService := service.NewSettingsService(d.SettingsRepo, d.Settings, d.Log.With().Str("component", "settings").Logger())
	authHandler := handler.NewAuthHandler(authService, cookie)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	apiGroup := e.Group("/api", middleware.AttachSettings(gate))

	// --- Auth routes ---
	apiGroup.POST("/auth/login", authHandler.Login,
		recorder.Audit(middleware.AuditOptions{Action: "auth.login", Entity: "user", Description: "User login"}))
	apiGroup.POST("/auth/logout", authHandler.Logout,
		recorder.Audit(middleware.AuditOptions{Action: "auth.logout", Entity: "user", Description: "User logout"}))
	apiGroup.GET("/auth/me", authHandler.Me, authn)

	// --- Settings routes ---
	apiGroup.GET("/settings", settingsHandler.Get, authn, guard.RequireLibrarian())
	apiGroup.PUT("/settings/maintenance", settingsHandler.SetMaintenance,
		recorder.Audit(middleware.AuditOptions{Action: "settings.maintenance", Entity: "settings", Resource: "system_settings"}),
		authn, guard.RequireAdmin())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	if d.Registry != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: prometheus.Gatherers{d.Registry, prometheus.DefaultGatherer},
		}))
	} else {
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
