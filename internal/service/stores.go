package service

import (
	"context"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	Exists(ctx context.Context, tokenHash, userID string) (bool, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore is the credential store used by the Authenticator.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByLogin(ctx context.Context, identifier string) (*model.User, error)
	ExistsUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	TouchLastAccess(ctx context.Context, id string, at time.Time) error
}

// ChoirStore is the tenant registry.
type ChoirStore interface {
	Create(ctx context.Context, c *model.Choir) error
	GetByID(ctx context.Context, id string) (*model.Choir, error)
	GetByCode(ctx context.Context, code string) (*model.Choir, error)
}

type SettingsStore interface {
	Ensure(ctx context.Context, choirID string, actorID *string) (bool, error)
}

type ThemeStore interface {
	EnsureDefaults(ctx context.Context, choirID string, actorID *string) (int, error)
}
