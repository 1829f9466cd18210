package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

// UserRepo persists rows of the `users` table. Username and email are
// normalized (trimmed, lowercased) on every write and lookup.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, name, role, choir_id, instrument, " +
	"last_access_at, theme_id, push_token, avatar_public_id, avatar_url, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u          model.User
		role       string
		lastAccess sql.NullTime
	)
	var choirID, themeID, push, avatarID, avatarURL sql.NullString
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &role, &choirID,
		&u.Instrument, &lastAccess, &themeID, &push, &avatarID, &avatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.ChoirID = strPtr(choirID)
	u.ThemeID = strPtr(themeID)
	u.PushToken = strPtr(push)
	u.AvatarPublicID = strPtr(avatarID)
	u.AvatarURL = strPtr(avatarURL)
	if lastAccess.Valid {
		t := lastAccess.Time
		u.LastAccessAt = &t
	}
	return &u, nil
}

// Create inserts u. The caller supplies the id and password hash. A unique
// index violation on username or email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = normalize(u.Username)
	u.Email = normalize(u.Email)
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, name, role, choir_id, instrument, created_at, updated_at) "+
			"VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Name, string(u.Role), nullStr(u.ChoirID), u.Instrument, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// Count returns the number of users in the system.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
}

// GetByLogin looks a user up by username or email.
func (r *UserRepo) GetByLogin(ctx context.Context, identifier string) (*model.User, error) {
	id := normalize(identifier)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ? LIMIT 1", id, id))
}

// ExistsUsernameOrEmail reports whether either identifier is already taken.
func (r *UserRepo) ExistsUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username = ? OR email = ? LIMIT 1",
		normalize(username), normalize(email)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepo) TouchLastAccess(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_access_at = ? WHERE id = ?", at.UTC(), id)
	return err
}

// ProfileUpdate carries the self-service fields of PATCH /me. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name       *string
	Instrument *string
	ThemeID    *string
	PushToken  *string
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	return execOne(ctx, r.DB,
		"UPDATE users SET name = COALESCE(?, name), instrument = COALESCE(?, instrument), "+
			"theme_id = COALESCE(?, theme_id), push_token = COALESCE(?, push_token), updated_at = ? WHERE id = ?",
		nullStr(p.Name), nullStr(p.Instrument), nullStr(p.ThemeID), nullStr(p.PushToken), time.Now().UTC(), id)
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	return execOne(ctx, r.DB,
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?", string(role), time.Now().UTC(), id)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM users WHERE id = ?", id)
}

// CountInChoir returns the number of members of a choir.
func (r *UserRepo) CountInChoir(ctx context.Context, choirID string) (int64, error) {
	return countWhere(ctx, r.DB, "users", model.ScopeTo(choirID))
}

// List returns the users visible in scope ordered by name.
func (r *UserRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.User, error) {
	where, args := scopeWhere(s, "")
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" ORDER BY name, username"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
