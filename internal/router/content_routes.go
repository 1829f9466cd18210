package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/middleware"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

// RegisterContent registers the tenant-scoped content routes. Reads need
// content:read, mutations content:write.
func RegisterContent(e *echo.Echo, h Handlers, o Options) {
	read := middleware.RequirePermission(o.Policy, tenancy.ObjContent, tenancy.ActRead)
	write := middleware.RequirePermission(o.Policy, tenancy.ObjContent, tenancy.ActWrite)

	g := e.Group("", middleware.Identity(o.Tokens), middleware.NormalizeBody())

	// ---- Songs ----
	for _, prefix := range []string{"/songs", "/choirs/:choirKey/songs"} {
		s := g.Group(prefix)
		s.GET("", h.Songs.List, read)
		s.GET("/:id", h.Songs.Get, read)
		s.POST("", h.Songs.Create, write)
		s.PUT("/:id", h.Songs.Update, write)
		s.PATCH("/:id", h.Songs.Update, write)
		s.DELETE("/:id", h.Songs.Delete, write)
	}

	// ---- Announcements ----
	g.GET("/announcements", h.Announcements.List, read)
	g.GET("/announcements/:id", h.Announcements.Get, read)
	g.POST("/announcements", h.Announcements.Create, write)
	g.PUT("/announcements/:id", h.Announcements.Update, write)
	g.DELETE("/announcements/:id", h.Announcements.Delete, write)

	// ---- Settings and themes ----
	g.GET("/settings", h.Settings.Get, read)
	g.PUT("/settings/featured-song", h.Settings.SetFeaturedSong, write)
	g.PUT("/settings/theme", h.Settings.SetTheme, write)
	g.GET("/themes", h.Themes.List, read)

	// ---- Instruments (global catalog) ----
	catalog := middleware.RequirePermission(o.Policy, tenancy.ObjCatalog, tenancy.ActWrite)
	g.GET("/instruments", h.Instruments.List, read, middleware.ResponseCache(o.Cache, o.Redis))
	g.POST("/instruments", h.Instruments.Create, catalog)
	g.PUT("/instruments/:id", h.Instruments.Update, catalog)
	g.DELETE("/instruments/:id", h.Instruments.Delete, catalog)

	// ---- Profile and presence ----
	g.GET("/me", h.Users.Me)
	g.PATCH("/me", h.Users.UpdateMe)
	g.GET("/ws", h.Presence.Connect)
	g.GET("/online", h.Presence.Online, read)
}
