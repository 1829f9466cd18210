package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/service"
)

// AuthHandler serves /auth/*.
type AuthHandler struct {
	Auth *service.Authenticator
}

func NewAuthHandler(a *service.Authenticator) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type registerReq struct {
	Name       string `json:"name" validate:"required"`
	Username   string `json:"username" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Instrument string `json:"instrument"`
	ChoirCode  string `json:"choirCode"`
}

// loginReq accepts the identifier as either username or usernameOrEmail.
type loginReq struct {
	Username        string `json:"username"`
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

func (r loginReq) identifier() string {
	if s := strings.TrimSpace(r.UsernameOrEmail); s != "" {
		return s
	}
	return strings.TrimSpace(r.Username)
}

// tokenReq accepts the refresh token as token or refreshToken.
type tokenReq struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (r tokenReq) value() string {
	if s := strings.TrimSpace(r.RefreshToken); s != "" {
		return s
	}
	return strings.TrimSpace(r.Token)
}

// Register creates an account and returns a session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	s, err := h.Auth.Register(ctx, service.RegisterInput{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Instrument: req.Instrument,
		ChoirCode:  req.ChoirCode,
	})
	switch {
	case errors.Is(err, service.ErrConflict):
		return message(c, http.StatusBadRequest, "username or email already exists")
	case errors.Is(err, service.ErrTenantNotFound):
		return message(c, http.StatusBadRequest, "unknown choir code")
	case err != nil:
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("user registered", zap.String("user_id", s.User.ID), zap.String("role", string(s.User.Role)))
	return c.JSON(http.StatusCreated, echo.Map{
		"accessToken":  s.AccessToken,
		"refreshToken": s.RefreshToken,
		"role":         s.User.Role,
		"user":         s.User,
	})
}

// Login authenticates by username or email.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	var missing []string
	if req.identifier() == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return respondError(c, &ValidationError{Fields: missing})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	s, err := h.Auth.Login(ctx, req.identifier(), req.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrCorruptAccount):
		logger.FromEcho(c).Error("account without password hash", zap.String("identifier", req.identifier()))
		return message(c, http.StatusInternalServerError, "account is misconfigured")
	case err != nil:
		return respondError(c, err)
	}

	var choirCode string
	if s.Choir != nil {
		choirCode = s.Choir.Code
	}
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  s.AccessToken,
		"refreshToken": s.RefreshToken,
		"role":         s.User.Role,
		"user":         s.User,
		"choirId":      s.User.TenantID,
		"choirCode":    choirCode,
	})
}

// Refresh returns a new access token. The refresh token itself is not
// rotated and stays valid until logout or expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req tokenReq
	_ = c.Bind(&req)
	if req.value() == "" {
		return message(c, http.StatusForbidden, "refresh token required")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	tok, _, err := h.Auth.Refresh(ctx, req.value())
	if err != nil {
		if errors.Is(err, service.ErrRefreshRejected) {
			return message(c, http.StatusForbidden, "invalid or expired refresh token")
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": tok})
}

// Logout revokes the given refresh token. It succeeds even when the token is
// unknown or already revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req tokenReq
	_ = c.Bind(&req)
	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.value()); err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "logged out")
}
