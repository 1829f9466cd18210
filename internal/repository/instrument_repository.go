package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

// InstrumentRepo manages the global instrument catalog. Slugs are unique.
type InstrumentRepo struct{ DB *sql.DB }

func NewInstrumentRepo(db *sql.DB) *InstrumentRepo { return &InstrumentRepo{DB: db} }

const instrumentColumns = "id, name, slug, created_by, updated_by, created_at, updated_at"

func scanInstrument(s rowScanner) (*model.Instrument, error) {
	var (
		v                  model.Instrument
		creator, updatedBy sql.NullString
	)
	if err := s.Scan(&v.ID, &v.Name, &v.Slug, &creator, &updatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.CreatedBy, v.UpdatedBy = strPtr(creator), strPtr(updatedBy)
	return &v, nil
}

func (r *InstrumentRepo) Create(ctx context.Context, v *model.Instrument) error {
	v.Slug = normalize(v.Slug)
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO instruments (id, name, slug, created_by, updated_by, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		v.ID, v.Name, v.Slug, nullStr(v.CreatedBy), nullStr(v.UpdatedBy), now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

func (r *InstrumentRepo) GetByID(ctx context.Context, id string) (*model.Instrument, error) {
	return scanInstrument(r.DB.QueryRowContext(ctx, "SELECT "+instrumentColumns+" FROM instruments WHERE id = ?", id))
}

func (r *InstrumentRepo) Update(ctx context.Context, v *model.Instrument) error {
	v.Slug = normalize(v.Slug)
	v.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.DB,
		"UPDATE instruments SET name = ?, slug = ?, updated_by = ?, updated_at = ? WHERE id = ?",
		v.Name, v.Slug, nullStr(v.UpdatedBy), v.UpdatedAt, v.ID)
}

func (r *InstrumentRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM instruments WHERE id = ?", id)
}

func (r *InstrumentRepo) List(ctx context.Context, p model.Page) ([]model.Instrument, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+instrumentColumns+" FROM instruments ORDER BY name"+pageClause(p))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Instrument{}
	for rows.Next() {
		v, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
