package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

// RequireRole rejects callers whose role is not listed. The 403 message
// names the accepted roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	names := make([]string, len(roles))
	for i, r := range roles {
		allowed[r] = true
		names[i] = string(r)
	}
	msg := "requires role " + strings.Join(names, " or ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil || !allowed[p.Role] {
				metrics.ScopeDenials.WithLabelValues("role").Inc()
				return c.JSON(http.StatusForbidden, echo.Map{"message": msg})
			}
			return next(c)
		}
	}
}

// Authorizer decides role-gated actions. *tenancy.Policy satisfies it.
type Authorizer interface {
	Authorize(role model.Role, obj, act string) error
}

// RequirePermission rejects callers whose role may not perform act on obj.
func RequirePermission(a Authorizer, obj, act string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "access token required"})
			}
			if err := a.Authorize(p.Role, obj, act); err != nil {
				var fe *tenancy.ForbiddenError
				if errors.As(err, &fe) {
					return c.JSON(http.StatusForbidden, echo.Map{"message": fe.Error()})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
