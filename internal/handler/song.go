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

const resourceSong = "song"

// SongHandler serves the choir repertoire. It is the reference shape for
// every tenant-scoped resource: lists go through Scoper.ScopeFor, single
// items through tenancy.AuthorizeItem, creations through CreationTenant.
type SongHandler struct {
	Songs    SongStore
	Settings SettingsStore
	Scope    Scoper
	Audit    service.AuditRecorder
}

type songReq struct {
	Title    string `json:"title" validate:"required,max=200"`
	Composer string `json:"composer" validate:"max=200"`
	Lyrics   string `json:"lyrics"`
	ChoirID  string `json:"choirId"`
}

func (h *SongHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Songs.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// load fetches a song and applies item-level tenant isolation. When a super
// admin names a choir (query or :choirKey) the song must belong to it.
func (h *SongHandler) load(c echo.Context) (*model.Song, error) {
	ctx, cancel := storeCtx(c)
	defer cancel()
	p := caller(c)
	s, err := h.Songs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := tenancy.AuthorizeItem(p, s.ChoirID); err != nil {
		return nil, err
	}
	sr := scopeRequest(c)
	if !p.IsSuperAdmin() || (sr.ChoirID == "" && sr.ChoirKey == "" && sr.PathKey == "") {
		return s, nil
	}
	scope, err := h.Scope.ScopeFor(ctx, p, sr)
	if err != nil {
		return nil, err
	}
	if !tenancy.InScope(scope, s.ChoirID) {
		return nil, tenancy.ErrNotFound
	}
	return s, nil
}

func (h *SongHandler) Get(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SongHandler) Create(c echo.Context) error {
	var req songReq
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
	s := &model.Song{
		ID:       uuid.NewString(),
		ChoirID:  choirID,
		Title:    strings.TrimSpace(req.Title),
		Composer: strings.TrimSpace(req.Composer),
		Lyrics:   req.Lyrics,
		Stamp:    model.Stamp{CreatedBy: actorID(p), UpdatedBy: actorID(p)},
	}
	if err := h.Songs.Create(ctx, s); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionCreate, resourceSong, s.ID, s.ChoirID)
	return c.JSON(http.StatusCreated, s)
}

func (h *SongHandler) Update(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	var req songReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	s.Title = strings.TrimSpace(req.Title)
	s.Composer = strings.TrimSpace(req.Composer)
	s.Lyrics = req.Lyrics
	s.UpdatedBy = actorID(p)

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Songs.Update(ctx, s); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionUpdate, resourceSong, s.ID, s.ChoirID)
	return c.JSON(http.StatusOK, s)
}

func (h *SongHandler) Delete(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	// the featured slot is released first so it never points at a deleted song
	if err := h.Settings.ClearSong(ctx, s.ID); err != nil {
		return respondError(c, err)
	}
	if err := h.Songs.Delete(ctx, s.ID); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, caller(c), queue.ActionDelete, resourceSong, s.ID, s.ChoirID)
	return c.NoContent(http.StatusNoContent)
}
