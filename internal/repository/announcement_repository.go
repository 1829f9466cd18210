package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

type AnnouncementRepo struct{ DB *sql.DB }

func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo { return &AnnouncementRepo{DB: db} }

const announcementColumns = "id, choir_id, title, body, created_by, updated_by, created_at, updated_at"

func scanAnnouncement(s rowScanner) (*model.Announcement, error) {
	var (
		v                         model.Announcement
		choir, creator, updatedBy sql.NullString
	)
	if err := s.Scan(&v.ID, &choir, &v.Title, &v.Body, &creator, &updatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ChoirID, v.CreatedBy, v.UpdatedBy = strPtr(choir), strPtr(creator), strPtr(updatedBy)
	return &v, nil
}

func (r *AnnouncementRepo) Create(ctx context.Context, v *model.Announcement) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO announcements (id, choir_id, title, body, created_by, updated_by, created_at, updated_at) "+
			"VALUES (?,?,?,?,?,?,?,?)",
		v.ID, nullStr(v.ChoirID), v.Title, v.Body, nullStr(v.CreatedBy), nullStr(v.UpdatedBy), now, now)
	if err != nil {
		return err
	}
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

func (r *AnnouncementRepo) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	return scanAnnouncement(r.DB.QueryRowContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements WHERE id = ?", id))
}

func (r *AnnouncementRepo) Update(ctx context.Context, v *model.Announcement) error {
	v.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.DB,
		"UPDATE announcements SET title = ?, body = ?, updated_by = ?, updated_at = ? WHERE id = ?",
		v.Title, v.Body, nullStr(v.UpdatedBy), v.UpdatedAt, v.ID)
}

func (r *AnnouncementRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM announcements WHERE id = ?", id)
}

// List returns the newest announcements first.
func (r *AnnouncementRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.Announcement, error) {
	where, args := scopeWhere(s, "")
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements WHERE "+where+" ORDER BY created_at DESC"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Announcement{}
	for rows.Next() {
		v, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
