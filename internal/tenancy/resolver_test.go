package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
)

const (
	erocID  = "0b7a3f52-5a0e-4c39-9a53-51d2f6a0e001"
	otherID = "0b7a3f52-5a0e-4c39-9a53-51d2f6a0e002"
)

type stubChoirs []model.Choir

func (s stubChoirs) GetByCode(_ context.Context, code string) (*model.Choir, error) {
	for _, c := range s {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s stubChoirs) GetByName(_ context.Context, name string) (*model.Choir, error) {
	for _, c := range s {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestResolver() *Resolver {
	return NewResolver(stubChoirs{
		{ID: erocID, Code: "eroc1", Name: "Eroc"},
		{ID: otherID, Code: "other", Name: "Other Choir"},
	})
}

func principal(role model.Role, home string) *model.Principal {
	p := &model.Principal{ID: "u", Role: role}
	if home != "" {
		p.ChoirID = &home
	}
	return p
}

func TestResolveTenantID(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()

	id, err := r.ResolveTenantID(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, otherID, *id)

	id, err = r.ResolveTenantID(ctx, "eroc1")
	require.NoError(t, err)
	assert.Equal(t, erocID, *id)

	id, err = r.ResolveTenantID(ctx, "Other Choir")
	require.NoError(t, err)
	assert.Equal(t, otherID, *id)

	id, err = r.ResolveTenantID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestScopeFor_NonSuperIgnoresOverride(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()

	for _, role := range []model.Role{model.RoleAdmin, model.RoleEditor, model.RoleViewer} {
		s, err := r.ScopeFor(ctx, principal(role, erocID), ScopeRequest{ChoirID: otherID, ChoirKey: "other", PathKey: "other"})
		require.NoError(t, err)
		require.NotNil(t, s.ChoirID)
		assert.Equal(t, erocID, *s.ChoirID, role)
	}
}

func TestScopeFor_NonSuperWithoutTenant(t *testing.T) {
	_, err := newTestResolver().ScopeFor(context.Background(), principal(model.RoleAdmin, ""), ScopeRequest{ChoirKey: "eroc1"})
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestScopeFor_SuperAdmin(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()

	s, err := r.ScopeFor(ctx, principal(model.RoleSuperAdmin, erocID), ScopeRequest{ChoirKey: "other"})
	require.NoError(t, err)
	assert.Equal(t, otherID, *s.ChoirID)

	s, err = r.ScopeFor(ctx, principal(model.RoleSuperAdmin, erocID), ScopeRequest{})
	require.NoError(t, err)
	assert.Equal(t, erocID, *s.ChoirID)

	s, err = r.ScopeFor(ctx, principal(model.RoleSuperAdmin, ""), ScopeRequest{})
	require.NoError(t, err)
	assert.True(t, s.Global())

	_, err = r.ScopeFor(ctx, principal(model.RoleSuperAdmin, ""), ScopeRequest{ChoirKey: "nope"})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestScopeFor_OverridePrecedence(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()
	super := principal(model.RoleSuperAdmin, "")

	s, err := r.ScopeFor(ctx, super, ScopeRequest{ChoirID: otherID, ChoirKey: "eroc1", PathKey: "eroc1"})
	require.NoError(t, err)
	assert.Equal(t, otherID, *s.ChoirID)

	s, err = r.ScopeFor(ctx, super, ScopeRequest{ChoirKey: "other", PathKey: "eroc1"})
	require.NoError(t, err)
	assert.Equal(t, otherID, *s.ChoirID)

	s, err = r.ScopeFor(ctx, super, ScopeRequest{PathKey: "eroc1"})
	require.NoError(t, err)
	assert.Equal(t, erocID, *s.ChoirID)
}

func TestCreationTenant(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()

	id, err := r.CreationTenant(ctx, principal(model.RoleEditor, erocID), ScopeRequest{ChoirID: otherID})
	require.NoError(t, err)
	assert.Equal(t, erocID, *id)

	id, err = r.CreationTenant(ctx, principal(model.RoleSuperAdmin, erocID), ScopeRequest{ChoirKey: "other"})
	require.NoError(t, err)
	assert.Equal(t, otherID, *id)

	id, err = r.CreationTenant(ctx, principal(model.RoleSuperAdmin, ""), ScopeRequest{})
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = r.CreationTenant(ctx, principal(model.RoleViewer, ""), ScopeRequest{})
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestAuthorizeItem(t *testing.T) {
	eroc, other := erocID, otherID

	assert.NoError(t, AuthorizeItem(principal(model.RoleSuperAdmin, ""), &other))
	assert.NoError(t, AuthorizeItem(principal(model.RoleViewer, erocID), &eroc))

	for _, role := range []model.Role{model.RoleAdmin, model.RoleEditor, model.RoleViewer} {
		assert.ErrorIs(t, AuthorizeItem(principal(role, erocID), &other), ErrNotFound)
		assert.ErrorIs(t, AuthorizeItem(principal(role, erocID), nil), ErrNotFound)
	}
	assert.ErrorIs(t, AuthorizeItem(principal(model.RoleViewer, ""), &eroc), ErrNoTenant)
}

func TestInScope(t *testing.T) {
	eroc, other := erocID, otherID
	assert.True(t, InScope(model.Scope{}, &other))
	assert.True(t, InScope(model.ScopeTo(erocID), &eroc))
	assert.False(t, InScope(model.ScopeTo(erocID), &other))
	assert.False(t, InScope(model.ScopeTo(erocID), nil))
}
