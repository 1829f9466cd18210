package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/service"
)

const principalKey = "principal"

// AccessVerifier verifies access tokens. *service.TokenService satisfies it.
type AccessVerifier interface {
	VerifyAccess(raw string) (*service.AccessClaims, error)
}

// Identity verifies the bearer access token and stores the caller's
// principal on the context. A missing token is rejected with 403, an invalid
// or expired one with 401. Websocket upgrades may pass the token as ?token=
// because browsers cannot set headers on them. The refresh store is never
// consulted.
func Identity(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				metrics.AuthOutcomes.WithLabelValues("access", "missing").Inc()
				return c.JSON(http.StatusForbidden, echo.Map{"message": "access token required"})
			}
			claims, err := v.VerifyAccess(raw)
			if err != nil {
				metrics.AuthOutcomes.WithLabelValues("access", "invalid").Inc()
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired access token"})
			}
			c.Set(principalKey, claims.Principal())
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		if tok := strings.TrimSpace(h[7:]); tok != "" {
			return tok, true
		}
	}
	if websocket.IsWebSocketUpgrade(r) {
		if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// PrincipalFrom returns the principal set by Identity, or nil on public
// routes.
func PrincipalFrom(c echo.Context) *model.Principal {
	p, _ := c.Get(principalKey).(*model.Principal)
	return p
}

// SetPrincipal stores p on the context. Handler tests use it to bypass token
// verification.
func SetPrincipal(c echo.Context, p *model.Principal) { c.Set(principalKey, p) }

// userID identifies the caller for rate-limit keys.
func userID(c echo.Context) string {
	if p := PrincipalFrom(c); p != nil && p.ID != "" {
		return p.ID
	}
	return "anon"
}
