package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/middleware"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

// RegisterAdmin registers choir, member and audit log administration.
func RegisterAdmin(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("", middleware.Identity(o.Tokens), middleware.NormalizeBody())

	manageChoirs := middleware.RequirePermission(o.Policy, tenancy.ObjChoirs, tenancy.ActManage)
	manageUsers := middleware.RequirePermission(o.Policy, tenancy.ObjUsers, tenancy.ActManage)

	// ---- Choirs ----
	g.POST("/choirs", h.Choirs.Create, manageChoirs)
	g.GET("/choirs", h.Choirs.List)
	g.GET("/choirs/:id", h.Choirs.Get)
	g.DELETE("/choirs/:id", h.Choirs.Delete, manageChoirs)

	// ---- Members ----
	g.GET("/users", h.Users.List, manageUsers)
	g.PATCH("/users/:id/role", h.Users.UpdateRole, manageUsers)
	g.DELETE("/users/:id", h.Users.Delete, manageUsers)

	// ---- Audit logs ----
	g.GET("/logs", h.Logs.List, middleware.RequirePermission(o.Policy, tenancy.ObjLogs, tenancy.ActRead))
}
