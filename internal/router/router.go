// Package router registers every HTTP route on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/config"
	"github.com/iliyamo/choir-api/internal/handler"
	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/middleware"
)

// Handlers groups the endpoint implementations.
type Handlers struct {
	Auth          *handler.AuthHandler
	Choirs        *handler.ChoirHandler
	Users         *handler.UserHandler
	Songs         *handler.SongHandler
	Announcements *handler.AnnouncementHandler
	Settings      *handler.SettingsHandler
	Themes        *handler.ThemeHandler
	Instruments   *handler.InstrumentHandler
	Logs          *handler.LogHandler
	Presence      *handler.PresenceHandler
	Health        *handler.HealthHandler
}

// Options carries the cross-cutting dependencies of the middleware chain.
type Options struct {
	Tokens    middleware.AccessVerifier
	Policy    middleware.Authorizer
	Redis     *redis.Client // nil disables rate limiting and caching
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       *zap.Logger
}

// New builds the echo instance with the global middleware chain and every
// route registered.
func New(h Handlers, o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	handler.Install(e)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(o.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	RegisterRoutes(e, h)
	RegisterAuth(e, h.Auth, o)
	RegisterContent(e, h, o)
	RegisterAdmin(e, h, o)
	return e
}

// RegisterRoutes registers the unauthenticated operational routes.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Live)
	e.GET("/readyz", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/choirs/public/:code", h.Choirs.Public)
}

// RegisterAuth registers /auth/*. Every route is rate limited; logout also
// requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	g := e.Group("/auth", middleware.RateLimit(o.RateLimit, o.Redis), middleware.NormalizeBody())
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-token", a.Refresh)
	g.POST("/logout", a.Logout, middleware.Identity(o.Tokens))
}
