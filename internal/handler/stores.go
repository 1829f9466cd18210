package handler

import (
	"context"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

// Scoper computes tenant scopes. *tenancy.Resolver satisfies it.
type Scoper interface {
	ScopeFor(ctx context.Context, p *model.Principal, req tenancy.ScopeRequest) (model.Scope, error)
	CreationTenant(ctx context.Context, p *model.Principal, req tenancy.ScopeRequest) (*string, error)
}

type SongStore interface {
	Create(ctx context.Context, v *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	Update(ctx context.Context, v *model.Song) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.Song, error)
}

type AnnouncementStore interface {
	Create(ctx context.Context, v *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	Update(ctx context.Context, v *model.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.Announcement, error)
}

type SettingsStore interface {
	Ensure(ctx context.Context, choirID string, actorID *string) (bool, error)
	Get(ctx context.Context, choirID string) (*model.ChoirSettings, error)
	SetFeaturedSong(ctx context.Context, choirID string, songID, actorID *string) error
	SetTheme(ctx context.Context, choirID string, themeID, actorID *string) error
	ClearSong(ctx context.Context, songID string) error
}

type ThemeStore interface {
	GetByID(ctx context.Context, id string) (*model.Theme, error)
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.Theme, error)
}

type InstrumentStore interface {
	Create(ctx context.Context, v *model.Instrument) error
	GetByID(ctx context.Context, id string) (*model.Instrument, error)
	Update(ctx context.Context, v *model.Instrument) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p model.Page) ([]model.Instrument, error)
}

type ChoirStore interface {
	GetByID(ctx context.Context, id string) (*model.Choir, error)
	GetByCode(ctx context.Context, code string) (*model.Choir, error)
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.Choir, error)
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.User, error)
	UpdateProfile(ctx context.Context, id string, p repository.ProfileUpdate) error
	UpdateRole(ctx context.Context, id string, role model.Role) error
	Delete(ctx context.Context, id string) error
	CountInChoir(ctx context.Context, choirID string) (int64, error)
}

type LogStore interface {
	List(ctx context.Context, s model.Scope, p model.Page) ([]model.AuditLog, error)
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

// AssetReleaser deletes uploaded media. *service.MediaClient satisfies it.
type AssetReleaser interface {
	DeleteAsset(ctx context.Context, publicID string) error
}

// AnnouncementNotifier dispatches push notifications. *service.Notifier
// satisfies it.
type AnnouncementNotifier interface {
	AnnouncementPublished(ctx context.Context, a *model.Announcement, sentBy string)
}
