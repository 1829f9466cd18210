package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
)

// Provisioner creates choirs and seeds their per-choir defaults (settings
// row and default themes). Provisioning an already provisioned choir is a
// no-op.
type Provisioner struct {
	choirs   ChoirStore
	settings SettingsStore
	themes   ThemeStore
}

func NewProvisioner(choirs ChoirStore, settings SettingsStore, themes ThemeStore) *Provisioner {
	return &Provisioner{choirs: choirs, settings: settings, themes: themes}
}

// CreateChoir inserts a choir and provisions its defaults.
func (p *Provisioner) CreateChoir(ctx context.Context, name, code string, logoURL, actorID *string) (*model.Choir, error) {
	c := &model.Choir{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Code:      strings.ToLower(strings.TrimSpace(code)),
		Active:    true,
		LogoURL:   logoURL,
		CreatedBy: actorID,
	}
	if err := p.choirs.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChoirCodeTaken
		}
		return nil, fmt.Errorf("create choir: %w", err)
	}
	if err := p.Provision(ctx, c.ID, actorID); err != nil {
		return nil, err
	}
	return c, nil
}

// Provision ensures the settings row and default themes of a choir exist.
func (p *Provisioner) Provision(ctx context.Context, choirID string, actorID *string) error {
	if _, err := p.settings.Ensure(ctx, choirID, actorID); err != nil {
		return fmt.Errorf("provision settings: %w", err)
	}
	if _, err := p.themes.EnsureDefaults(ctx, choirID, actorID); err != nil {
		return fmt.Errorf("provision themes: %w", err)
	}
	return nil
}

// EnsureChoir returns the choir with code, creating and provisioning it when
// missing. Used at startup for the default registration choir.
func (p *Provisioner) EnsureChoir(ctx context.Context, code, name string) (*model.Choir, error) {
	c, err := p.choirs.GetByCode(ctx, code)
	switch {
	case err == nil:
		return c, p.Provision(ctx, c.ID, nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup choir %q: %w", code, err)
	}
	c, err = p.CreateChoir(ctx, name, code, nil, nil)
	if errors.Is(err, ErrChoirCodeTaken) {
		// another instance created it first
		return p.choirs.GetByCode(ctx, code)
	}
	return c, err
}
