package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/choir-api/internal/model"
)

// SettingsRepo stores one choir_settings row per choir. The featured song and
// the selected theme are single reference columns, so setting either is one
// atomic row update and concurrent writers leave exactly one winner.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// Ensure creates the settings row for choirID if it does not exist yet and
// reports whether it did.
func (r *SettingsRepo) Ensure(ctx context.Context, choirID string, actorID *string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO choir_settings (choir_id, updated_by, updated_at) VALUES (?,?,?)",
		choirID, nullStr(actorID), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SettingsRepo) Get(ctx context.Context, choirID string) (*model.ChoirSettings, error) {
	var (
		s                    model.ChoirSettings
		song, theme, updater sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT choir_id, featured_song_id, selected_theme_id, updated_by, updated_at FROM choir_settings WHERE choir_id = ?",
		choirID).Scan(&s.ChoirID, &song, &theme, &updater, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.FeaturedSongID, s.SelectedThemeID, s.UpdatedBy = strPtr(song), strPtr(theme), strPtr(updater)
	return &s, nil
}

// SetFeaturedSong replaces the featured song slot. A nil songID clears it.
func (r *SettingsRepo) SetFeaturedSong(ctx context.Context, choirID string, songID, actorID *string) error {
	return execOne(ctx, r.DB,
		"UPDATE choir_settings SET featured_song_id = ?, updated_by = ?, updated_at = ? WHERE choir_id = ?",
		nullStr(songID), nullStr(actorID), time.Now().UTC(), choirID)
}

// SetTheme replaces the selected theme slot.
func (r *SettingsRepo) SetTheme(ctx context.Context, choirID string, themeID, actorID *string) error {
	return execOne(ctx, r.DB,
		"UPDATE choir_settings SET selected_theme_id = ?, updated_by = ?, updated_at = ? WHERE choir_id = ?",
		nullStr(themeID), nullStr(actorID), time.Now().UTC(), choirID)
}

// ClearSong unsets the featured slot wherever it points at songID.
func (r *SettingsRepo) ClearSong(ctx context.Context, songID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE choir_settings SET featured_song_id = NULL WHERE featured_song_id = ?", songID)
	return err
}
