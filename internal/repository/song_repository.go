package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

type SongRepo struct{ DB *sql.DB }

func NewSongRepo(db *sql.DB) *SongRepo { return &SongRepo{DB: db} }

const songColumns = "id, choir_id, title, composer, lyrics, created_by, updated_by, created_at, updated_at"

func scanSong(s rowScanner) (*model.Song, error) {
	var (
		v                         model.Song
		choir, creator, updatedBy sql.NullString
	)
	err := s.Scan(&v.ID, &choir, &v.Title, &v.Composer, &v.Lyrics, &creator, &updatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ChoirID, v.CreatedBy, v.UpdatedBy = strPtr(choir), strPtr(creator), strPtr(updatedBy)
	return &v, nil
}

func (r *SongRepo) Create(ctx context.Context, v *model.Song) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO songs (id, choir_id, title, composer, lyrics, created_by, updated_by, created_at, updated_at) "+
			"VALUES (?,?,?,?,?,?,?,?,?)",
		v.ID, nullStr(v.ChoirID), v.Title, v.Composer, v.Lyrics, nullStr(v.CreatedBy), nullStr(v.UpdatedBy), now, now)
	if err != nil {
		return err
	}
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

// GetByID loads a song regardless of tenant. Callers enforce item access.
func (r *SongRepo) GetByID(ctx context.Context, id string) (*model.Song, error) {
	return scanSong(r.DB.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id))
}

func (r *SongRepo) Update(ctx context.Context, v *model.Song) error {
	v.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.DB,
		"UPDATE songs SET title = ?, composer = ?, lyrics = ?, updated_by = ?, updated_at = ? WHERE id = ?",
		v.Title, v.Composer, v.Lyrics, nullStr(v.UpdatedBy), v.UpdatedAt, v.ID)
}

func (r *SongRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM songs WHERE id = ?", id)
}

func (r *SongRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.Song, error) {
	where, args := scopeWhere(s, "")
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+songColumns+" FROM songs WHERE "+where+" ORDER BY title"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Song{}
	for rows.Next() {
		v, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *SongRepo) Count(ctx context.Context, s model.Scope) (int64, error) {
	return countWhere(ctx, r.DB, "songs", s)
}
