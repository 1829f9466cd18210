package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/choir-api/internal/model"
)

// LogRepo stores audit records written by the audit consumer.
type LogRepo struct{ DB *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{DB: db} }

// Insert stores l. Redelivered events carry the same id, so a duplicate key
// is treated as already stored.
func (r *LogRepo) Insert(ctx context.Context, l model.AuditLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO logs (id, choir_id, action, resource, resource_id, actor_id, actor_name, created_at) VALUES (?,?,?,?,?,?,?,?)",
		l.ID, nullStr(l.ChoirID), l.Action, l.Resource, l.ResourceID, l.ActorID, l.ActorName, l.CreatedAt.UTC())
	if isDuplicate(err) {
		return nil
	}
	return err
}

// List returns the newest records first.
func (r *LogRepo) List(ctx context.Context, s model.Scope, p model.Page) ([]model.AuditLog, error) {
	where, args := scopeWhere(s, "")
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, choir_id, action, resource, resource_id, actor_id, actor_name, created_at FROM logs WHERE "+
			where+" ORDER BY created_at DESC"+pageClause(p), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditLog{}
	for rows.Next() {
		var (
			l     model.AuditLog
			choir sql.NullString
		)
		if err := rows.Scan(&l.ID, &choir, &l.Action, &l.Resource, &l.ResourceID, &l.ActorID, &l.ActorName, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.ChoirID = strPtr(choir)
		out = append(out, l)
	}
	return out, rows.Err()
}
