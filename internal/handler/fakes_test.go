package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/choir-api/internal/middleware"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

const (
	choirA = "6f1c0d8e-1111-4a55-8d0e-00000000000a"
	choirB = "6f1c0d8e-2222-4a55-8d0e-00000000000b"
)

func ptr(s string) *string { return &s }

func inScope(s model.Scope, choirID *string) bool {
	return s.Global() || (choirID != nil && *choirID == *s.ChoirID)
}

// ---- choirs ----

type memChoirs struct {
	mu   sync.Mutex
	rows []model.Choir
}

func newChoirs() *memChoirs {
	return &memChoirs{rows: []model.Choir{
		{ID: choirA, Name: "Alpha Singers", Code: "alpha", Active: true},
		{ID: choirB, Name: "Beta Chorale", Code: "beta", Active: true},
	}}
}

func (m *memChoirs) find(match func(model.Choir) bool) (*model.Choir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if match(c) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memChoirs) GetByID(_ context.Context, id string) (*model.Choir, error) {
	return m.find(func(c model.Choir) bool { return c.ID == id })
}

func (m *memChoirs) GetByCode(_ context.Context, code string) (*model.Choir, error) {
	return m.find(func(c model.Choir) bool { return c.Code == code })
}

func (m *memChoirs) GetByName(_ context.Context, name string) (*model.Choir, error) {
	return m.find(func(c model.Choir) bool { return c.Name == name })
}

func (m *memChoirs) List(_ context.Context, s model.Scope, _ model.Page) ([]model.Choir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Choir
	for _, c := range m.rows {
		if inScope(s, &c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChoirs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.rows {
		if c.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---- songs ----

type memSongs struct {
	mu   sync.Mutex
	rows map[string]model.Song
}

func newSongs(songs ...model.Song) *memSongs {
	m := &memSongs{rows: map[string]model.Song{}}
	for _, s := range songs {
		m.rows[s.ID] = s
	}
	return m
}

func (m *memSongs) Create(_ context.Context, v *model.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.ID] = *v
	return nil
}

func (m *memSongs) GetByID(_ context.Context, id string) (*model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memSongs) Update(_ context.Context, v *model.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.ID] = *v
	return nil
}

func (m *memSongs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSongs) List(_ context.Context, s model.Scope, _ model.Page) ([]model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Song{}
	for _, v := range m.rows {
		if inScope(s, v.ChoirID) {
			out = append(out, v)
		}
	}
	return out, nil
}

// ---- settings and themes ----

type memSettings struct {
	mu      sync.Mutex
	rows     map[string]model.ChoirSettings
	cleared  []string
	clearErr error
}

func newSettings() *memSettings { return &memSettings{rows: map[string]model.ChoirSettings{}} }

func (m *memSettings) Ensure(_ context.Context, choirID string, _ *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[choirID]; ok {
		return false, nil
	}
	m.rows[choirID] = model.ChoirSettings{ChoirID: choirID}
	return true, nil
}

func (m *memSettings) Get(_ context.Context, choirID string) (*model.ChoirSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[choirID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memSettings) SetFeaturedSong(_ context.Context, choirID string, songID, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.rows[choirID]
	s.FeaturedSongID = songID
	m.rows[choirID] = s
	return nil
}

func (m *memSettings) SetTheme(_ context.Context, choirID string, themeID, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.rows[choirID]
	s.SelectedThemeID = themeID
	m.rows[choirID] = s
	return nil
}

func (m *memSettings) ClearSong(_ context.Context, songID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = append(m.cleared, songID)
	for k, s := range m.rows {
		if s.FeaturedSongID != nil && *s.FeaturedSongID == songID {
			s.FeaturedSongID = nil
			m.rows[k] = s
		}
	}
	return nil
}

type memThemes map[string]model.Theme

func (m memThemes) GetByID(_ context.Context, id string) (*model.Theme, error) {
	t, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m memThemes) List(_ context.Context, s model.Scope, _ model.Page) ([]model.Theme, error) {
	out := []model.Theme{}
	for _, t := range m {
		if inScope(s, t.ChoirID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ---- users ----

type memUsers struct {
	mu      sync.Mutex
	rows    map[string]model.User
	deleted []string
}

func newUsers(users ...model.User) *memUsers {
	m := &memUsers{rows: map[string]model.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) List(_ context.Context, s model.Scope, _ model.Page) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.rows {
		if inScope(s, u.ChoirID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, p repository.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.ThemeID != nil {
		u.ThemeID = p.ThemeID
	}
	m.rows[id] = u
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	m.rows[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memUsers) CountInChoir(_ context.Context, choirID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.rows {
		if u.ChoirID != nil && *u.ChoirID == choirID {
			n++
		}
	}
	return n, nil
}

type memSessions struct{ revoked []string }

func (m *memSessions) DeleteAllForUser(_ context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type stubMedia struct {
	err      error
	released []string
}

func (m *stubMedia) DeleteAsset(_ context.Context, publicID string) error {
	if m.err != nil {
		return m.err
	}
	m.released = append(m.released, publicID)
	return nil
}

var errMediaDown = errors.New("media host unavailable")

// ---- side effects ----

type auditCall struct {
	Action, Resource, ResourceID string
	ChoirID                      *string
}

type recAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (r *recAudit) Record(_ context.Context, _ *model.Principal, action, resource, id string, choirID *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{action, resource, id, choirID})
}

func (r *recAudit) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// ---- harness ----

type harness struct {
	t      *testing.T
	e      *echo.Echo
	tokens *service.TokenService
	policy *tenancy.Policy
	scope  *tenancy.Resolver
	choirs *memChoirs
	audit  *recAudit
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	policy, err := tenancy.NewPolicy()
	require.NoError(t, err)
	choirs := newChoirs()
	e := echo.New()
	Install(e)
	return &harness{
		t:      t,
		e:      e,
		tokens: service.NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", time.Minute, time.Hour, nil),
		policy: policy,
		scope:  tenancy.NewResolver(choirs),
		choirs: choirs,
		audit:  &recAudit{},
	}
}

// group returns a route group behind the identity middleware.
func (h *harness) group() *echo.Group {
	return h.e.Group("", middleware.Identity(h.tokens))
}

func (h *harness) perm(obj, act string) echo.MiddlewareFunc {
	return middleware.RequirePermission(h.policy, obj, act)
}

// token signs an access token for a user of role in choir ("" for none).
func (h *harness) token(id string, role model.Role, choir string) string {
	h.t.Helper()
	c := service.AccessClaims{UserID: id, Username: id, Role: role}
	if choir != "" {
		c.TenantID = ptr(choir)
	}
	tok, _, err := h.tokens.IssueAccessToken(c)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, target, token, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}
