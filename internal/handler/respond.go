package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/middleware"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const (
	storeTimeout = 5 * time.Second
	defaultLimit = 20
	maxLimit     = 100
)

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// respondError translates domain errors into one response. Unknown errors
// are logged in full and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	var (
		ve *ValidationError
		fe *tenancy.ForbiddenError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return message(c, http.StatusBadRequest, ve.Error())
	case errors.As(err, &he):
		return err
	case errors.As(err, &fe):
		return message(c, http.StatusForbidden, fe.Error())
	case errors.Is(err, tenancy.ErrNoTenant):
		return message(c, http.StatusBadRequest, tenancy.ErrNoTenant.Error())
	case errors.Is(err, tenancy.ErrTenantNotFound), errors.Is(err, service.ErrTenantNotFound):
		return message(c, http.StatusNotFound, "choir not found")
	case errors.Is(err, tenancy.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return message(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		return message(c, http.StatusConflict, service.ErrConflict.Error())
	case errors.Is(err, service.ErrChoirCodeTaken):
		return message(c, http.StatusConflict, service.ErrChoirCodeTaken.Error())
	case errors.Is(err, repository.ErrDuplicate):
		return message(c, http.StatusConflict, "already exists")
	case errors.Is(err, repository.ErrConflict):
		return message(c, http.StatusConflict, "resource is still in use")
	}
	logger.FromEcho(c).Error("unhandled error", zap.String("route", c.Path()), zap.Error(err))
	return message(c, http.StatusInternalServerError, "internal server error")
}

// bindValid binds the request into dst and validates it. It writes nothing;
// callers hand a non-nil error to respondError.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.Validate(dst)
}

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// scopeRequest collects the client supplied tenant hints of a request.
func scopeRequest(c echo.Context) tenancy.ScopeRequest {
	return tenancy.ScopeRequest{
		ChoirID:  c.QueryParam("choirId"),
		ChoirKey: c.QueryParam("choirKey"),
		PathKey:  c.Param("choirKey"),
	}
}

// pageFrom reads ?page, ?limit and ?all=true.
func pageFrom(c echo.Context) model.Page {
	p := model.Page{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		p.Limit = min(v, maxLimit)
	}
	p.All = strings.EqualFold(c.QueryParam("all"), "true")
	return p
}

// caller returns the principal. Routes using it sit behind Identity.
func caller(c echo.Context) *model.Principal {
	return middleware.PrincipalFrom(c)
}

func actorID(p *model.Principal) *string {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
