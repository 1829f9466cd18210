package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/service"
)

const resourceInstrument = "instrument"

// InstrumentHandler manages the global instrument catalog. Reads are open
// to every authenticated caller; writes are gated by the catalog:write
// permission in the router.
type InstrumentHandler struct {
	Instruments InstrumentStore
	Audit       service.AuditRecorder
	// Purge drops cached catalog responses after a write. May be nil.
	Purge func(ctx context.Context) error
}

type instrumentReq struct {
	Name string `json:"name" validate:"required,max=80"`
	Slug string `json:"slug" validate:"required,max=80"`
}

func (h *InstrumentHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	items, err := h.Instruments.List(ctx, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *InstrumentHandler) Create(c echo.Context) error {
	var req instrumentReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	ctx, cancel := storeCtx(c)
	defer cancel()
	v := &model.Instrument{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(req.Name),
		Slug:  req.Slug,
		Stamp: model.Stamp{CreatedBy: actorID(p), UpdatedBy: actorID(p)},
	}
	if err := h.Instruments.Create(ctx, v); err != nil {
		return respondError(c, err)
	}
	h.changed(ctx, c, queue.ActionCreate, v.ID)
	return c.JSON(http.StatusCreated, v)
}

func (h *InstrumentHandler) Update(c echo.Context) error {
	var req instrumentReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	v, err := h.Instruments.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	v.Name = strings.TrimSpace(req.Name)
	v.Slug = req.Slug
	v.UpdatedBy = actorID(caller(c))
	if err := h.Instruments.Update(ctx, v); err != nil {
		return respondError(c, err)
	}
	h.changed(ctx, c, queue.ActionUpdate, v.ID)
	return c.JSON(http.StatusOK, v)
}

func (h *InstrumentHandler) Delete(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Instruments.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	h.changed(ctx, c, queue.ActionDelete, id)
	return c.NoContent(http.StatusNoContent)
}

func (h *InstrumentHandler) changed(ctx context.Context, c echo.Context, action, id string) {
	h.Audit.Record(ctx, caller(c), action, resourceInstrument, id, nil)
	if h.Purge == nil {
		return
	}
	if err := h.Purge(ctx); err != nil {
		logger.FromEcho(c).Warn("catalog cache purge failed", zap.Error(err))
	}
}
