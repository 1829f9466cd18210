// Package repository implements persistence over MySQL. Tenant-scoped
// queries take a model.Scope and never widen it: a scope with a choir id
// always adds a choir_id predicate.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id or key matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique index
// (username, email, choir code, instrument slug, theme name within a choir).
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a write cannot proceed because of dependent
// state, such as deleting a choir that still has members.
var ErrConflict = errors.New("conflict")

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
