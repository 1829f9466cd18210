package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const resourceSettings = "settings"

// SettingsHandler serves the per-choir single-slot selections: the featured
// song and the selected theme.
type SettingsHandler struct {
	Settings SettingsStore
	Songs    SongStore
	Themes   ThemeStore
	Scope    Scoper
	Audit    service.AuditRecorder
}

type featuredSongReq struct {
	SongID *string `json:"songId"`
}

type themeReq struct {
	ThemeID *string `json:"themeId"`
}

// choir returns the single choir the request targets. A global scope is not
// enough here because settings always belong to one choir.
func (h *SettingsHandler) choir(c echo.Context) (string, error) {
	ctx, cancel := storeCtx(c)
	defer cancel()
	s, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return "", err
	}
	if s.Global() {
		return "", tenancy.ErrNoTenant
	}
	return *s.ChoirID, nil
}

func (h *SettingsHandler) Get(c echo.Context) error {
	choirID, err := h.choir(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	s, err := h.Settings.Get(ctx, choirID)
	if errors.Is(err, repository.ErrNotFound) {
		// choirs created before provisioning existed get their row lazily
		if _, err = h.Settings.Ensure(ctx, choirID, nil); err == nil {
			s, err = h.Settings.Get(ctx, choirID)
		}
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SetFeaturedSong points the featured slot at a song of the same choir, or
// clears it when songId is null.
func (h *SettingsHandler) SetFeaturedSong(c echo.Context) error {
	choirID, err := h.choir(c)
	if err != nil {
		return respondError(c, err)
	}
	var req featuredSongReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if req.SongID != nil {
		song, err := h.Songs.GetByID(ctx, *req.SongID)
		if err != nil {
			return respondError(c, err)
		}
		if !tenancy.InScope(model.ScopeTo(choirID), song.ChoirID) {
			return respondError(c, tenancy.ErrNotFound)
		}
	}
	return h.apply(c, choirID, func(actor *string) error {
		if _, err := h.Settings.Ensure(ctx, choirID, actor); err != nil {
			return err
		}
		return h.Settings.SetFeaturedSong(ctx, choirID, req.SongID, actor)
	})
}

// SetTheme selects one of the choir's themes.
func (h *SettingsHandler) SetTheme(c echo.Context) error {
	choirID, err := h.choir(c)
	if err != nil {
		return respondError(c, err)
	}
	var req themeReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ThemeID == nil {
		return respondError(c, &ValidationError{Fields: []string{"themeId"}})
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	theme, err := h.Themes.GetByID(ctx, *req.ThemeID)
	if err != nil {
		return respondError(c, err)
	}
	if !tenancy.InScope(model.ScopeTo(choirID), theme.ChoirID) {
		return respondError(c, tenancy.ErrNotFound)
	}
	return h.apply(c, choirID, func(actor *string) error {
		if _, err := h.Settings.Ensure(ctx, choirID, actor); err != nil {
			return err
		}
		return h.Settings.SetTheme(ctx, choirID, req.ThemeID, actor)
	})
}

func (h *SettingsHandler) apply(c echo.Context, choirID string, write func(actor *string) error) error {
	p := caller(c)
	if err := write(actorID(p)); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	s, err := h.Settings.Get(ctx, choirID)
	if err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionUpdate, resourceSettings, choirID, &choirID)
	return c.JSON(http.StatusOK, s)
}
