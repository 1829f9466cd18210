package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

func settingsFixture(t *testing.T) (*harness, *memSettings) {
	h := newHarness(t)
	settings := newSettings()
	sh := &SettingsHandler{
		Settings: settings,
		Songs: newSongs(
			model.Song{ID: "song-a", ChoirID: ptr(choirA)},
			model.Song{ID: "song-b", ChoirID: ptr(choirB)},
		),
		Themes: memThemes{"theme-a": {ID: "theme-a", ChoirID: ptr(choirA)}, "theme-b": {ID: "theme-b", ChoirID: ptr(choirB)}},
		Scope:  h.scope,
		Audit:  h.audit,
	}
	g := h.group()
	g.GET("/settings", sh.Get, h.perm(tenancy.ObjContent, tenancy.ActRead))
	g.PUT("/settings/featured-song", sh.SetFeaturedSong, h.perm(tenancy.ObjContent, tenancy.ActWrite))
	g.PUT("/settings/theme", sh.SetTheme, h.perm(tenancy.ObjContent, tenancy.ActWrite))
	return h, settings
}

func TestSettings_GetCreatesMissingRow(t *testing.T) {
	h, settings := settingsFixture(t)
	rec := h.do(http.MethodGet, "/settings", h.token("v", model.RoleViewer, choirA), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, settings.rows, choirA)

	root := h.token("root", model.RoleSuperAdmin, "")
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/settings", root, "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/settings?choirKey=beta", root, "").Code)
}

func TestSettings_FeaturedSongIsSingleSlotInOwnChoir(t *testing.T) {
	h, settings := settingsFixture(t)
	tok := h.token("ed", model.RoleEditor, choirA)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/settings/featured-song", tok, `{"songId":"song-b"}`).Code)
	assert.Nil(t, settings.rows[choirA].FeaturedSongID)

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/settings/featured-song", tok, `{"songId":"song-a"}`).Code)
	assert.Equal(t, "song-a", *settings.rows[choirA].FeaturedSongID)

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/settings/featured-song", tok, `{"songId":null}`).Code)
	assert.Nil(t, settings.rows[choirA].FeaturedSongID)
}

func TestSettings_ThemeSelection(t *testing.T) {
	h, settings := settingsFixture(t)
	tok := h.token("ed", model.RoleEditor, choirA)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/settings/theme", tok, `{}`).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/settings/theme", tok, `{"themeId":"theme-b"}`).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/settings/theme", tok, `{"themeId":"theme-a"}`).Code)
	assert.Equal(t, "theme-a", *settings.rows[choirA].SelectedThemeID)

	viewer := h.token("v", model.RoleViewer, choirA)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/settings/theme", viewer, `{"themeId":"theme-a"}`).Code)
}
