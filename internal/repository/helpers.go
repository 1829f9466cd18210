package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/choir-api/internal/model"
)

// scopeWhere returns the predicate restricting rows to s. alias may be empty.
func scopeWhere(s model.Scope, alias string) (string, []any) {
	if s.Global() {
		return "1=1", nil
	}
	col := "choir_id"
	if alias != "" {
		col = alias + ".choir_id"
	}
	return col + " = ?", []any{*s.ChoirID}
}

// pageClause appends LIMIT/OFFSET unless the page asks for every row.
func pageClause(p model.Page) string {
	if p.All || p.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset())
}

func countWhere(ctx context.Context, db *sql.DB, table string, s model.Scope) (int64, error) {
	where, args := scopeWhere(s, "")
	var n int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n)
	return n, err
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, db *sql.DB, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
