package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const resourceUser = "user"

// UserHandler serves the caller's own profile and the member administration
// of a choir.
type UserHandler struct {
	Users    UserStore
	Choirs   ChoirStore
	Themes   ThemeStore
	Sessions SessionRevoker
	Media    AssetReleaser
	Scope    Scoper
	Audit    service.AuditRecorder
}

type profileReq struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Instrument *string `json:"instrument" validate:"omitempty,max=80"`
	ThemeID    *string `json:"themeId"`
	PushToken  *string `json:"pushToken" validate:"omitempty,max=512"`
}

type roleReq struct {
	Role string `json:"role" validate:"required"`
}

func (h *UserHandler) view(c echo.Context, u *model.User) model.UserView {
	if u.ChoirID == nil {
		return u.View(nil)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	ch, err := h.Choirs.GetByID(ctx, *u.ChoirID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.FromEcho(c).Warn("choir lookup failed", zap.String("user_id", u.ID), zap.Error(err))
		}
		return u.View(nil)
	}
	return u.View(ch)
}

// Me returns the caller's current profile.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, caller(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(c, u))
}

// UpdateMe edits the caller's own profile. A selected theme must belong to
// the caller's choir.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req profileReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	ctx, cancel := storeCtx(c)
	defer cancel()
	if req.ThemeID != nil {
		t, err := h.Themes.GetByID(ctx, *req.ThemeID)
		if err != nil {
			return respondError(c, err)
		}
		if err := tenancy.AuthorizeItem(p, t.ChoirID); err != nil {
			return respondError(c, err)
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	upd := repository.ProfileUpdate{
		Name:       req.Name,
		Instrument: req.Instrument,
		ThemeID:    req.ThemeID,
		PushToken:  req.PushToken,
	}
	if err := h.Users.UpdateProfile(ctx, p.ID, upd); err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionUpdate, resourceUser, u.ID, u.ChoirID)
	return c.JSON(http.StatusOK, h.view(c, u))
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	scope, err := h.Scope.ScopeFor(ctx, caller(c), scopeRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	users, err := h.Users.List(ctx, scope, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	choirs := map[string]*model.Choir{}
	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		if u.ChoirID == nil {
			out = append(out, u.View(nil))
			continue
		}
		ch, seen := choirs[*u.ChoirID]
		if !seen {
			ch, err = h.Choirs.GetByID(ctx, *u.ChoirID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return respondError(c, err)
			}
			choirs[*u.ChoirID] = ch
		}
		out = append(out, u.View(ch))
	}
	return c.JSON(http.StatusOK, out)
}

// target loads the user addressed by :id and hides members of other choirs.
func (h *UserHandler) target(c echo.Context) (*model.User, error) {
	ctx, cancel := storeCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := tenancy.AuthorizeItem(caller(c), u.ChoirID); err != nil {
		return nil, err
	}
	return u, nil
}

// outranks reports whether p may manage an account holding role. Only a
// super admin may grant SUPER_ADMIN or touch a super admin account.
func outranks(p *model.Principal, role model.Role) bool {
	return role != model.RoleSuperAdmin || p.IsSuperAdmin()
}

func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req roleReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return message(c, http.StatusBadRequest, "unknown role "+req.Role)
	}
	u, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	if !outranks(p, role) || !outranks(p, u.Role) {
		return message(c, http.StatusForbidden, "requires role SUPER_ADMIN")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Users.UpdateRole(ctx, u.ID, role); err != nil {
		return respondError(c, err)
	}
	u.Role = role
	h.Audit.Record(ctx, p, queue.ActionUpdate, resourceUser, u.ID, u.ChoirID)
	return c.JSON(http.StatusOK, h.view(c, u))
}

// Delete removes a member. The avatar is released on the media host first
// so a failed release leaves the account intact.
func (h *UserHandler) Delete(c echo.Context) error {
	u, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	p := caller(c)
	if u.ID == p.ID {
		return message(c, http.StatusBadRequest, "cannot delete your own account")
	}
	if !outranks(p, u.Role) {
		return message(c, http.StatusForbidden, "requires role SUPER_ADMIN")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if u.AvatarPublicID != nil && *u.AvatarPublicID != "" {
		if err := h.Media.DeleteAsset(ctx, *u.AvatarPublicID); err != nil {
			logger.FromEcho(c).Error("avatar release failed", zap.String("user_id", u.ID), zap.Error(err))
			return message(c, http.StatusInternalServerError, "could not release user media")
		}
	}
	if err := h.Sessions.DeleteAllForUser(ctx, u.ID); err != nil {
		return respondError(c, err)
	}
	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return respondError(c, err)
	}
	h.Audit.Record(ctx, p, queue.ActionDelete, resourceUser, u.ID, u.ChoirID)
	return c.NoContent(http.StatusNoContent)
}
