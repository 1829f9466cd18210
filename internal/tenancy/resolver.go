// Package tenancy computes the tenant scope of a request and decides
// role-gated actions.
//
// Scope rules:
//   - A non-super principal is always scoped to its home choir. Client
//     supplied choir parameters are ignored. Without a home choir the request
//     fails with ErrNoTenant.
//   - A super admin is scoped to an explicit override when one is supplied
//     (choirId, then choirKey, then the :choirKey path segment), else to its
//     home choir, else to every choir.
//   - Single items of another choir are reported as ErrNotFound.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
)

var (
	// ErrNotFound masks items outside the caller's choir.
	ErrNotFound = errors.New("not found")
	// ErrNoTenant means a non-super principal has no home choir.
	ErrNoTenant = errors.New("account is not assigned to a choir")
	// ErrTenantNotFound means an explicit choir override did not resolve.
	ErrTenantNotFound = errors.New("choir not found")
)

// ChoirLookup resolves choir codes and names.
type ChoirLookup interface {
	GetByCode(ctx context.Context, code string) (*model.Choir, error)
	GetByName(ctx context.Context, name string) (*model.Choir, error)
}

// ScopeRequest carries the client supplied tenant hints of a request, in
// precedence order.
type ScopeRequest struct {
	ChoirID  string // ?choirId or a body field
	ChoirKey string // ?choirKey
	PathKey  string // :choirKey route segment
}

func (r ScopeRequest) override() string {
	for _, v := range []string{r.ChoirID, r.ChoirKey, r.PathKey} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type Resolver struct {
	choirs ChoirLookup
}

func NewResolver(choirs ChoirLookup) *Resolver { return &Resolver{choirs: choirs} }

// ResolveTenantID maps a tenant key to a choir id. Identifier-shaped keys
// are returned as is; otherwise the key is matched against choir codes and
// then display names. It returns nil when nothing matches.
func (r *Resolver) ResolveTenantID(ctx context.Context, key string) (*string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(key); err == nil {
		return &key, nil
	}
	c, err := r.choirs.GetByCode(ctx, key)
	if err == nil {
		return &c.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("resolve choir code: %w", err)
	}
	c, err = r.choirs.GetByName(ctx, key)
	if err == nil {
		return &c.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("resolve choir name: %w", err)
	}
	return nil, nil
}

// ScopeFor computes the read scope for p.
func (r *Resolver) ScopeFor(ctx context.Context, p *model.Principal, req ScopeRequest) (model.Scope, error) {
	if !p.IsSuperAdmin() {
		home, ok := p.HomeChoir()
		if !ok {
			metrics.ScopeDenials.WithLabelValues("no_tenant").Inc()
			return model.Scope{}, ErrNoTenant
		}
		return model.ScopeTo(home), nil
	}
	if key := req.override(); key != "" {
		id, err := r.ResolveTenantID(ctx, key)
		if err != nil {
			return model.Scope{}, err
		}
		if id == nil {
			return model.Scope{}, ErrTenantNotFound
		}
		return model.ScopeTo(*id), nil
	}
	if home, ok := p.HomeChoir(); ok {
		return model.ScopeTo(home), nil
	}
	return model.Scope{}, nil
}

// CreationTenant returns the choir a new record is stamped with. Non-super
// principals always get their home choir; a super admin may target another
// choir or none.
func (r *Resolver) CreationTenant(ctx context.Context, p *model.Principal, req ScopeRequest) (*string, error) {
	s, err := r.ScopeFor(ctx, p, req)
	if err != nil {
		return nil, err
	}
	return s.ChoirID, nil
}

// AuthorizeItem decides access to a single record owned by itemChoirID.
// Records of another choir yield ErrNotFound, never a forbidden error.
func AuthorizeItem(p *model.Principal, itemChoirID *string) error {
	if p.IsSuperAdmin() {
		return nil
	}
	home, ok := p.HomeChoir()
	if !ok {
		metrics.ScopeDenials.WithLabelValues("no_tenant").Inc()
		return ErrNoTenant
	}
	if itemChoirID == nil || *itemChoirID != home {
		metrics.ScopeDenials.WithLabelValues("cross_tenant").Inc()
		return ErrNotFound
	}
	return nil
}

// InScope reports whether a record owned by itemChoirID is visible in s.
func InScope(s model.Scope, itemChoirID *string) bool {
	if s.Global() {
		return true
	}
	return itemChoirID != nil && *itemChoirID == *s.ChoirID
}
