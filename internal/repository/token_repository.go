package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TokenRepo persists refresh tokens as SHA-256 hashes. A record is live while
// it exists and expires_at is in the future. Logout deletes the record.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		uuid.NewString(), userID, tokenHash, exp.UTC(), time.Now().UTC())
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Exists reports whether a live record for tokenHash belongs to userID.
func (r *TokenRepo) Exists(ctx context.Context, tokenHash, userID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE token_hash = ? AND user_id = ? AND expires_at > ? LIMIT 1",
		tokenHash, userID, time.Now().UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// DeleteByHash removes the record for tokenHash. Removing nothing is not an error.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash = ?", tokenHash)
	return err
}

// DeleteAllForUser ends every session of a user.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id = ?", userID)
	return err
}

// DeleteExpired purges records whose expiry has passed and returns how many
// were removed.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
