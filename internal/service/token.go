package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/utils"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID     string     `json:"id"`
	Username   string     `json:"username"`
	Role       model.Role `json:"role"`
	Name       string     `json:"name"`
	TenantID   *string    `json:"tenantId,omitempty"`
	TenantName string     `json:"tenantName,omitempty"`
	Type       string     `json:"typ"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request principal.
func (c *AccessClaims) Principal() *model.Principal {
	return &model.Principal{
		ID:        c.UserID,
		Username:  c.Username,
		Name:      c.Name,
		Role:      c.Role,
		ChoirID:   c.TenantID,
		ChoirName: c.TenantName,
	}
}

// RefreshClaims is the payload of a refresh token. It carries no role or
// tenant; those are reloaded from the user store on refresh.
type RefreshClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies access and refresh tokens. The two kinds
// use different secrets and a typ claim, so neither verifies as the other.
// Access verification is stateless; refresh verification also requires a
// live record in the store.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	store         TokenStore
	now           func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store TokenStore) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		now:           time.Now,
	}
}

// IssueAccessToken signs c as an access token and returns it with its expiry.
func (s *TokenService) IssueAccessToken(c AccessClaims) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.accessTTL)
	c.Type = typeAccess
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   c.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := utils.SignHS256(s.accessSecret, c)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues(typeAccess).Inc()
	return tok, exp, nil
}

// IssueRefreshToken signs a refresh token for the user and persists its hash
// with the same expiry as the signature.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID, username string) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.refreshTTL)
	c := RefreshClaims{
		UserID:   userID,
		Username: username,
		Type:     typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // distinct hash for concurrent sessions
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := utils.SignHS256(s.refreshSecret, c)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.store.StoreRefresh(ctx, userID, utils.HashToken(tok), exp); err != nil {
		return "", time.Time{}, fmt.Errorf("store refresh token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues(typeRefresh).Inc()
	return tok, exp, nil
}

// VerifyAccess checks signature, algorithm, expiry and type of an access
// token. It never touches the refresh store.
func (s *TokenService) VerifyAccess(raw string) (*AccessClaims, error) {
	var c AccessClaims
	if err := utils.ParseHS256(strings.TrimSpace(raw), s.accessSecret, &c); err != nil {
		return nil, classify(err)
	}
	if c.Type != typeAccess || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// VerifyRefresh checks a refresh token and requires its record to still be
// live in the store. A valid signature without a record is ErrTokenRevoked.
func (s *TokenService) VerifyRefresh(ctx context.Context, raw string) (*RefreshClaims, error) {
	raw = strings.TrimSpace(raw)
	var c RefreshClaims
	if err := utils.ParseHS256(raw, s.refreshSecret, &c); err != nil {
		return nil, classify(err)
	}
	if c.Type != typeRefresh || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	ok, err := s.store.Exists(ctx, utils.HashToken(raw), c.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if !ok {
		return nil, ErrTokenRevoked
	}
	return &c, nil
}

// Revoke deletes the record of a refresh token. Unknown or already revoked
// tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return s.store.DeleteByHash(ctx, utils.HashToken(raw))
}

// PurgeExpired deletes refresh records past their expiry.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now().UTC())
}

// RunGC purges expired refresh records every interval until ctx is done.
func (s *TokenService) RunGC(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Warn("refresh token gc failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired refresh tokens", zap.Int64("count", n))
			}
		}
	}
}

func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
