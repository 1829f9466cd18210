package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ThemeHandler lists the themes of the caller's scope.
type ThemeHandler struct {
	Themes ThemeStore
	Scope  Scoper
}

func (h *ThemeHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Themes.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
