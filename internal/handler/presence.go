package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/presence"
)

// PresenceHandler upgrades authenticated clients onto the presence roster
// and reports who is online.
type PresenceHandler struct {
	Hub      *presence.Hub
	Scope    Scoper
	Upgrader websocket.Upgrader
}

func NewPresenceHandler(hub *presence.Hub, scope Scoper) *PresenceHandler {
	return &PresenceHandler{
		Hub:   hub,
		Scope: scope,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// mobile clients do not send an Origin header; identity is the token
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect serves GET /ws?token=. It blocks until the socket closes.
func (h *PresenceHandler) Connect(c echo.Context) error {
	p := caller(c)
	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.FromEcho(c).Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	client := h.Hub.Join(p)
	logger.FromEcho(c).Info("presence joined",
		zap.String("user_id", p.ID),
		zap.String("connection_id", client.Entry().ConnectionID))
	client.Serve(conn)
	return nil
}

// Online lists the open connections of the caller's scope.
func (h *PresenceHandler) Online(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.Hub.Online(scope))
}
