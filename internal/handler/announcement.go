package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const resourceAnnouncement = "announcement"

type AnnouncementHandler struct {
	Announcements AnnouncementStore
	Scope         Scoper
	Audit         service.AuditRecorder
	Notify        AnnouncementNotifier
}

type announcementReq struct {
	Title   string `json:"title" validate:"required,max=200"`
	Body    string `json:"body" validate:"required"`
	ChoirID string `json:"choirId"`
}

func (h *AnnouncementHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Announcements.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AnnouncementHandler) load(c echo.Context) (*model.Announcement, error) {
	ctx, cancel := storeCtx(c)
	defer cancel()
	a, err := h.Announcements.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := tenancy.AuthorizeItem(caller(c), a.ChoirID); err != nil {
		return nil, err
	}
	return a, nil
}

func (h *AnnouncementHandler) Get(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Create stores the announcement and dispatches a push notification in the
// background. Dispatch failures never affect the response.
func (h *AnnouncementHandler) Create(c echo.Context) error {
	var req announcementReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	ctx, cancel := storeCtx(c)
	defer cancel()

	sr := scopeRequest(c)
	if req.ChoirID != "" {
		sr.ChoirID = req.ChoirID
	}
	choirID, err := h.Scope.CreationTenant(ctx, p, sr)
	if err != nil {
		return respondError(c, err)
	}
	a := &model.Announcement{
		ID:      uuid.NewString(),
		ChoirID: choirID,
		Title:   strings.TrimSpace(req.Title),
		Body:    req.Body,
		Stamp:   model.Stamp{CreatedBy: actorID(p), UpdatedBy: actorID(p)},
	}
	if err := h.Announcements.Create(ctx, a); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionCreate, resourceAnnouncement, a.ID, a.ChoirID)
	h.Notify.AnnouncementPublished(ctx, a, p.ID)
	return c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) Update(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	var req announcementReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	a.Title = strings.TrimSpace(req.Title)
	a.Body = req.Body
	a.UpdatedBy = actorID(p)

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Announcements.Update(ctx, a); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionUpdate, resourceAnnouncement, a.ID, a.ChoirID)
	return c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Announcements.Delete(ctx, a.ID); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, caller(c), queue.ActionDelete, resourceAnnouncement, a.ID, a.ChoirID)
	return c.NoContent(http.StatusNoContent)
}
