package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/utils"
)

// RegisterInput is a self-registration request. ChoirCode may be empty, in
// which case the default choir is used.
type RegisterInput struct {
	Name       string
	Username   string
	Email      string
	Password   string
	Instrument string
	ChoirCode  string
}

// Session is the result of a successful register or login.
type Session struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
	User           model.UserView
	Choir          *model.Choir
}

// Authenticator verifies credentials and produces sessions.
type Authenticator struct {
	users        UserStore
	choirs       ChoirStore
	tokens       *TokenService
	bcryptCost   int
	defaultChoir string
	now          func() time.Time
}

func NewAuthenticator(users UserStore, choirs ChoirStore, tokens *TokenService, bcryptCost int, defaultChoirCode string) *Authenticator {
	return &Authenticator{
		users:        users,
		choirs:       choirs,
		tokens:       tokens,
		bcryptCost:   bcryptCost,
		defaultChoir: defaultChoirCode,
		now:          time.Now,
	}
}

// Register creates a user and opens a session for it. The uniqueness check
// runs before any write; a unique index violation on insert (a concurrent
// registration with the same handle) is reported the same way.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	taken, err := a.users.ExistsUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if taken {
		metrics.AuthOutcomes.WithLabelValues("register", "conflict").Inc()
		return nil, ErrConflict
	}

	code := strings.TrimSpace(in.ChoirCode)
	if code == "" {
		code = a.defaultChoir
	}
	choir, err := a.choirs.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthOutcomes.WithLabelValues("register", "tenant_not_found").Inc()
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("resolve choir: %w", err)
	}

	hash, err := utils.HashPassword(in.Password, a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Two registrations racing on an empty store can both see zero here;
	// the window is accepted.
	n, err := a.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	role := model.RoleDefault
	if n == 0 {
		role = model.RoleSuperAdmin
	}

	choirID := choir.ID
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		ChoirID:      &choirID,
		Instrument:   strings.TrimSpace(in.Instrument),
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.AuthOutcomes.WithLabelValues("register", "conflict").Inc()
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s, err := a.open(ctx, u, choir)
	if err != nil {
		return nil, err
	}
	metrics.AuthOutcomes.WithLabelValues("register", "ok").Inc()
	return s, nil
}

// Login authenticates by username or email.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (*Session, error) {
	u, err := a.users.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthOutcomes.WithLabelValues("login", "not_found").Inc()
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.PasswordHash == "" {
		return nil, ErrCorruptAccount
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		metrics.AuthOutcomes.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	now := a.now().UTC()
	if err := a.users.TouchLastAccess(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("touch last access: %w", err)
	}
	u.LastAccessAt = &now

	choir, err := a.choirOf(ctx, u)
	if err != nil {
		return nil, err
	}
	s, err := a.open(ctx, u, choir)
	if err != nil {
		return nil, err
	}
	metrics.AuthOutcomes.WithLabelValues("login", "ok").Inc()
	return s, nil
}

// Refresh mints a new access token from a live refresh token. Role, name and
// choir are read from the store, not from the refresh claims, so changes
// apply without a new login. Every failure wraps ErrRefreshRejected.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", time.Time{}, ErrRefreshRejected
	}
	rc, err := a.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		metrics.AuthOutcomes.WithLabelValues("refresh", "rejected").Inc()
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}
	u, err := a.users.GetByID(ctx, rc.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, fmt.Errorf("%w: %w", ErrRefreshRejected, ErrUserNotFound)
		}
		return "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	choir, err := a.choirOf(ctx, u)
	if err != nil {
		return "", time.Time{}, err
	}
	tok, exp, err := a.tokens.IssueAccessToken(accessClaimsFor(u, choir))
	if err != nil {
		return "", time.Time{}, err
	}
	metrics.AuthOutcomes.WithLabelValues("refresh", "ok").Inc()
	return tok, exp, nil
}

// Logout revokes a refresh token. It is idempotent.
func (a *Authenticator) Logout(ctx context.Context, refreshToken string) error {
	return a.tokens.Revoke(ctx, refreshToken)
}

func (a *Authenticator) open(ctx context.Context, u *model.User, choir *model.Choir) (*Session, error) {
	access, accessExp, err := a.tokens.IssueAccessToken(accessClaimsFor(u, choir))
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := a.tokens.IssueRefreshToken(ctx, u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
		User:           u.View(choir),
		Choir:          choir,
	}, nil
}

// choirOf loads the user's choir. A dangling reference is treated as
// tenant-less rather than failing the login.
func (a *Authenticator) choirOf(ctx context.Context, u *model.User) (*model.Choir, error) {
	if u.ChoirID == nil || *u.ChoirID == "" {
		return nil, nil
	}
	c, err := a.choirs.GetByID(ctx, *u.ChoirID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load choir: %w", err)
	}
	return c, nil
}

func accessClaimsFor(u *model.User, choir *model.Choir) AccessClaims {
	c := AccessClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		Name:     u.Name,
		TenantID: u.ChoirID,
	}
	if choir != nil {
		c.TenantName = choir.Name
	}
	return c
}
