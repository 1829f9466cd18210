package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/repository"
)

type memTokens struct {
	mu   sync.Mutex
	rows map[string]struct {
		userID string
		exp    time.Time
	}
}

func newMemTokens() *memTokens {
	return &memTokens{rows: map[string]struct {
		userID string
		exp    time.Time
	}{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, userID, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[hash]; ok {
		return repository.ErrDuplicate
	}
	m.rows[hash] = struct {
		userID string
		exp    time.Time
	}{userID, exp}
	return nil
}

func (m *memTokens) Exists(_ context.Context, hash, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[hash]
	return ok && r.userID == userID && r.exp.After(time.Now()), nil
}

func (m *memTokens) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, hash)
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, r := range m.rows {
		if !r.exp.After(now) {
			delete(m.rows, h)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	creates int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Username == u.Username || x.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.creates++
	return nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByLogin(_ context.Context, identifier string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range m.byID {
		if u.Username == id || u.Email == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) ExistsUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == strings.ToLower(username) || u.Email == strings.ToLower(email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) TouchLastAccess(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.LastAccessAt = &at
	}
	return nil
}

func (m *memUsers) setRole(id string, r model.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Role = r
}

type memChoirs struct {
	mu   sync.Mutex
	rows map[string]*model.Choir
}

func newMemChoirs(cs ...model.Choir) *memChoirs {
	m := &memChoirs{rows: map[string]*model.Choir{}}
	for i := range cs {
		c := cs[i]
		m.rows[c.ID] = &c
	}
	return m
}

func (m *memChoirs) Create(_ context.Context, c *model.Choir) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.rows {
		if x.Code == c.Code {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memChoirs) GetByID(_ context.Context, id string) (*model.Choir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memChoirs) GetByCode(_ context.Context, code string) (*model.Choir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Code == strings.ToLower(code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}
