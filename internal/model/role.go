package model

import "strings"

// Role is the authorization level carried by a user and its access token.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN" // global; may act tenant-less or target any choir
	RoleAdmin      Role = "ADMIN"
	RoleEditor     Role = "EDITOR"
	RoleViewer     Role = "VIEWER"

	// RoleDefault is assigned to every self-registration after the first.
	RoleDefault = RoleViewer
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes a client-supplied role name. ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}
