package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

// ChoirRepo is the tenant registry. Codes are stored lowercase, so lookups
// by code are case-insensitive.
type ChoirRepo struct {
	db *sql.DB
}

func NewChoirRepo(db *sql.DB) *ChoirRepo {
	return &ChoirRepo{db: db}
}

const choirColumns = "id, name, code, active, logo_url, created_by, created_at, updated_at"

func scanChoir(s rowScanner) (*model.Choir, error) {
	var (
		c       model.Choir
		logo    sql.NullString
		creator sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Code, &c.Active, &logo, &creator, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.LogoURL = strPtr(logo)
	c.CreatedBy = strPtr(creator)
	return &c, nil
}

// Create inserts c with its code normalized. A taken code yields ErrDuplicate.
func (r *ChoirRepo) Create(ctx context.Context, c *model.Choir) error {
	c.Code = normalize(c.Code)
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO choirs (id, name, code, active, logo_url, created_by, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		c.ID, c.Name, c.Code, c.Active, nullStr(c.LogoURL), nullStr(c.CreatedBy), now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *ChoirRepo) GetByID(ctx context.Context, id string) (*model.Choir, error) {
	return scanChoir(r.db.QueryRowContext(ctx, "SELECT "+choirColumns+" FROM choirs WHERE id = ?", id))
}

func (r *ChoirRepo) GetByCode(ctx context.Context, code string) (*model.Choir, error) {
	return scanChoir(r.db.QueryRowContext(ctx,
		"SELECT "+choirColumns+" FROM choirs WHERE code = ? LIMIT 1", normalize(code)))
}

// GetByName matches the display name exactly; the oldest choir wins when
// two share a name.
func (r *ChoirRepo) GetByName(ctx context.Context, name string) (*model.Choir, error) {
	return scanChoir(r.db.QueryRowContext(ctx,
		"SELECT "+choirColumns+" FROM choirs WHERE name = ? ORDER BY created_at LIMIT 1", name))
}

// List returns every choir when s is global, otherwise only the scoped one.
func (r *ChoirRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.Choir, error) {
	where, args := "1=1", []any(nil)
	if !s.Global() {
		where, args = "id = ?", []any{*s.ChoirID}
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+choirColumns+" FROM choirs WHERE "+where+" ORDER BY name"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Choir{}
	for rows.Next() {
		c, err := scanChoir(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ChoirRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "DELETE FROM choirs WHERE id = ?", id)
}
