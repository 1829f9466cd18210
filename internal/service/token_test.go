package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/choir-api/internal/model"
)

func newTestTokens(store TokenStore) *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, store)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokens(newMemTokens())
	choir := "c-1"
	in := AccessClaims{UserID: "u-1", Username: "ana", Role: model.RoleEditor, Name: "Ana", TenantID: &choir, TenantName: "Eroc"}

	tok, exp, err := ts.IssueAccessToken(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 2*time.Second)

	got, err := ts.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, model.RoleEditor, got.Role)
	assert.Equal(t, "Ana", got.Name)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, "c-1", *got.TenantID)
	assert.Equal(t, "Eroc", got.TenantName)

	p := got.Principal()
	assert.Equal(t, "u-1", p.ID)
	home, ok := p.HomeChoir()
	assert.True(t, ok)
	assert.Equal(t, "c-1", home)
}

func TestTokens_NotInterchangeable(t *testing.T) {
	ctx := context.Background()
	ts := newTestTokens(newMemTokens())

	access, _, err := ts.IssueAccessToken(AccessClaims{UserID: "u-1", Username: "ana", Role: model.RoleViewer})
	require.NoError(t, err)
	refresh, _, err := ts.IssueRefreshToken(ctx, "u-1", "ana")
	require.NoError(t, err)

	_, err = ts.VerifyRefresh(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ts.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_Expired(t *testing.T) {
	ts := newTestTokens(newMemTokens())
	ts.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, _, err := ts.IssueAccessToken(AccessClaims{UserID: "u-1", Role: model.RoleViewer})
	require.NoError(t, err)
	_, err = ts.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccess_Garbage(t *testing.T) {
	ts := newTestTokens(newMemTokens())
	_, err := ts.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RevokedAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemTokens()
	ts := newTestTokens(store)

	tok, _, err := ts.IssueRefreshToken(ctx, "u-1", "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, store.len())

	claims, err := ts.VerifyRefresh(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)

	require.NoError(t, ts.Revoke(ctx, tok))
	_, err = ts.VerifyRefresh(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// revoking again or revoking an unknown token is fine
	require.NoError(t, ts.Revoke(ctx, tok))
	require.NoError(t, ts.Revoke(ctx, "unknown"))
	assert.Equal(t, 0, store.len())
}

func TestRefresh_ConcurrentSessionsDistinct(t *testing.T) {
	ctx := context.Background()
	store := newMemTokens()
	ts := newTestTokens(store)

	a, _, err := ts.IssueRefreshToken(ctx, "u-1", "ana")
	require.NoError(t, err)
	b, _, err := ts.IssueRefreshToken(ctx, "u-1", "ana")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, store.len())
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemTokens()
	ts := newTestTokens(store)
	require.NoError(t, store.StoreRefresh(ctx, "u-1", "old", time.Now().Add(-time.Minute)))
	require.NoError(t, store.StoreRefresh(ctx, "u-1", "live", time.Now().Add(time.Hour)))

	n, err := ts.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, store.len())
}
