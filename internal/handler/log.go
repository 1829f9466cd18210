package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// LogHandler lists persisted audit records of the caller's scope.
type LogHandler struct {
	Logs  LogStore
	Scope Scoper
}

func (h *LogHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Logs.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
