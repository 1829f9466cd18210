package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iliyamo/choir-api/internal/model"
)

// DefaultThemes are provisioned into every new choir.
var DefaultThemes = []model.Theme{
	{Name: "Classic", Primary: "#1E3A8A", Secondary: "#F59E0B"},
	{Name: "Forest", Primary: "#065F46", Secondary: "#D1FAE5"},
	{Name: "Crimson", Primary: "#7F1D1D", Secondary: "#FDE68A"},
}

type ThemeRepo struct{ DB *sql.DB }

func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{DB: db} }

const themeColumns = "id, choir_id, name, primary_color, secondary_color, created_by, updated_by, created_at, updated_at"

func scanTheme(s rowScanner) (*model.Theme, error) {
	var (
		v                         model.Theme
		choir, creator, updatedBy sql.NullString
	)
	err := s.Scan(&v.ID, &choir, &v.Name, &v.Primary, &v.Secondary, &creator, &updatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ChoirID, v.CreatedBy, v.UpdatedBy = strPtr(choir), strPtr(creator), strPtr(updatedBy)
	return &v, nil
}

// EnsureDefaults inserts the default themes for choirID. Themes that already
// exist by name are left untouched, so repeating the call is a no-op. It
// returns the number of themes actually inserted.
func (r *ThemeRepo) EnsureDefaults(ctx context.Context, choirID string, actorID *string) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	for _, t := range DefaultThemes {
		res, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO themes (id, choir_id, name, primary_color, secondary_color, created_by, updated_by, created_at, updated_at) "+
				"VALUES (?,?,?,?,?,?,?,?,?)",
			uuid.NewString(), choirID, t.Name, t.Primary, t.Secondary, nullStr(actorID), nullStr(actorID), now, now)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *ThemeRepo) GetByID(ctx context.Context, id string) (*model.Theme, error) {
	return scanTheme(r.DB.QueryRowContext(ctx, "SELECT "+themeColumns+" FROM themes WHERE id = ?", id))
}

func (r *ThemeRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.Theme, error) {
	where, args := scopeWhere(s, "")
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+themeColumns+" FROM themes WHERE "+where+" ORDER BY name"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Theme{}
	for rows.Next() {
		v, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
