package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/choir-api/internal/model"
)

type authFixture struct {
	users  *memUsers
	choirs *memChoirs
	tokens *memTokens
	ts     *TokenService
	auth   *Authenticator
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  newMemUsers(),
		choirs: newMemChoirs(model.Choir{ID: "c-eroc", Name: "Eroc Choir", Code: "eroc1"}, model.Choir{ID: "c-other", Name: "Other", Code: "other"}),
		tokens: newMemTokens(),
	}
	f.ts = newTestTokens(f.tokens)
	f.auth = NewAuthenticator(f.users, f.choirs, f.ts, bcrypt.MinCost, "eroc1")
	return f
}

func (f *authFixture) register(t *testing.T, username string) *Session {
	t.Helper()
	s, err := f.auth.Register(context.Background(), RegisterInput{
		Name: username, Username: username, Email: username + "@example.com", Password: "secret-pw",
	})
	require.NoError(t, err)
	return s
}

func TestRegister_FirstUserIsSuperAdmin(t *testing.T) {
	f := newAuthFixture()

	first := f.register(t, "ana")
	assert.Equal(t, model.RoleSuperAdmin, first.User.Role)

	second := f.register(t, "ben")
	assert.Equal(t, model.RoleViewer, second.User.Role)
	third := f.register(t, "cleo")
	assert.Equal(t, model.RoleViewer, third.User.Role)
}

func TestRegister_ConflictPerformsNoWrite(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "ana")
	creates := f.users.creates
	tokens := f.tokens.len()

	_, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "x", Username: "  ANA ", Email: "new@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.Register(context.Background(), RegisterInput{
		Name: "x", Username: "someone", Email: "ANA@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, creates, f.users.creates)
	assert.Equal(t, tokens, f.tokens.len())
}

func TestRegister_UnknownChoir(t *testing.T) {
	f := newAuthFixture()
	_, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "x", Username: "x", Email: "x@example.com", Password: "pw", ChoirCode: "nope",
	})
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.Zero(t, f.users.creates)
}

func TestRegister_ExplicitChoirCodeIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture()
	s, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "x", Username: "x", Email: "x@example.com", Password: "pw", ChoirCode: "OTHER",
	})
	require.NoError(t, err)
	require.NotNil(t, s.User.TenantID)
	assert.Equal(t, "c-other", *s.User.TenantID)
	assert.Equal(t, "other", s.User.TenantCode)
}

func TestRegister_PasswordNeverStoredInClear(t *testing.T) {
	f := newAuthFixture()
	s := f.register(t, "ana")
	u, err := f.users.GetByID(context.Background(), s.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pw", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.register(t, "ana")

	s, err := f.auth.Login(ctx, "ANA@example.com", "secret-pw")
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.NotEmpty(t, s.RefreshToken)
	require.NotNil(t, s.User.TenantID)
	assert.Equal(t, "c-eroc", *s.User.TenantID)
	assert.Equal(t, "Eroc Choir", s.User.TenantName)
	assert.Equal(t, "eroc1", s.User.TenantCode)
	assert.NotNil(t, s.User.LastAccessAt)

	_, err = f.auth.Login(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody", "secret-pw")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_CorruptAccount(t *testing.T) {
	f := newAuthFixture()
	require.NoError(t, f.users.Create(context.Background(), &model.User{ID: "u-x", Username: "ghost", Email: "g@example.com", Role: model.RoleViewer}))

	_, err := f.auth.Login(context.Background(), "ghost", "anything")
	assert.ErrorIs(t, err, ErrCorruptAccount)
}

func TestRefresh_ReloadsRoleFromStore(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.register(t, "ana")
	s := f.register(t, "ben")

	f.users.setRole(s.User.ID, model.RoleEditor)

	tok, _, err := f.auth.Refresh(ctx, s.RefreshToken)
	require.NoError(t, err)
	claims, err := f.ts.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, claims.Role)
	assert.Equal(t, "Eroc Choir", claims.TenantName)
}

func TestRefresh_RejectedAfterLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	s := f.register(t, "ana")

	require.NoError(t, f.auth.Logout(ctx, s.RefreshToken))
	require.NoError(t, f.auth.Logout(ctx, s.RefreshToken))
	require.NoError(t, f.auth.Logout(ctx, "never-issued"))

	_, _, err := f.auth.Refresh(ctx, s.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRejected)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefresh_RejectsEmptyAndAccessTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	s := f.register(t, "ana")

	_, _, err := f.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrRefreshRejected)
	_, _, err = f.auth.Refresh(ctx, s.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshRejected)
}

func TestScenario_RegisterLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	reg, err := f.auth.Register(ctx, RegisterInput{
		Name: "Ana", Username: "ana", Email: "ana@example.com", Password: "secret-pw", ChoirCode: "eroc1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, reg.User.Role)

	login, err := f.auth.Login(ctx, "ana", "secret-pw")
	require.NoError(t, err)
	require.NotNil(t, login.User.TenantID)
	assert.Equal(t, "c-eroc", *login.User.TenantID)

	access, _, err := f.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	claims, err := f.ts.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, claims.Role)

	require.NoError(t, f.auth.Logout(ctx, login.RefreshToken))
	_, _, err = f.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRejected)

	// the registration session is independent and still usable
	_, _, err = f.auth.Refresh(ctx, reg.RefreshToken)
	assert.NoError(t, err)
}
