package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const resourceChoir = "choir"

// ChoirCreator creates and provisions a choir. *service.Provisioner
// satisfies it.
type ChoirCreator interface {
	CreateChoir(ctx context.Context, name, code string, logoURL, actorID *string) (*model.Choir, error)
}

type ChoirHandler struct {
	Choirs  ChoirStore
	Users   UserStore
	Creator ChoirCreator
	Scope   Scoper
	Audit   service.AuditRecorder
}

type choirReq struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Code    string  `json:"code" validate:"required,max=32,alphanum"`
	LogoURL *string `json:"logoUrl" validate:"omitempty,url"`
}

// publicChoir is what an unauthenticated client may learn about a code.
type publicChoir struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	LogoURL *string `json:"logoUrl,omitempty"`
}

func (h *ChoirHandler) Create(c echo.Context) error {
	var req choirReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	ctx, cancel := storeCtx(c)
	defer cancel()
	ch, err := h.Creator.CreateChoir(ctx, req.Name, req.Code, req.LogoURL, actorID(p))
	if err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionCreate, resourceChoir, ch.ID, &ch.ID)
	return c.JSON(http.StatusCreated, ch)
}

// List returns every choir to a super admin without an override, and only
// the caller's own choir to everyone else.
func (h *ChoirHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Choirs.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ChoirHandler) Get(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	ch, err := h.Choirs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := tenancy.AuthorizeItem(caller(c), &ch.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

// Public reports whether a registration code exists.
func (h *ChoirHandler) Public(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	ch, err := h.Choirs.GetByCode(ctx, strings.ToLower(strings.TrimSpace(c.Param("code"))))
	if err != nil || !ch.Active {
		if err == nil {
			err = repository.ErrNotFound
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, publicChoir{ID: ch.ID, Name: ch.Name, Code: ch.Code, LogoURL: ch.LogoURL})
}

// Delete removes an empty choir. Choirs that still have members are
// rejected with 409.
func (h *ChoirHandler) Delete(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	ch, err := h.Choirs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.Users.CountInChoir(ctx, ch.ID)
	if err != nil {
		return respondError(c, err)
	}
	if n > 0 {
		return message(c, http.StatusConflict, "choir still has members")
	}
	if err := h.Choirs.Delete(ctx, ch.ID); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, caller(c), queue.ActionDelete, resourceChoir, ch.ID, &ch.ID)
	return c.NoContent(http.StatusNoContent)
}
