package model

// Principal is the verified caller of a request, decoded from a signed
// access token by the identity middleware.
type Principal struct {
	ID        string
	Username  string
	Name      string
	Role      Role
	ChoirID   *string
	ChoirName string
}

func (p *Principal) IsSuperAdmin() bool { return p != nil && p.Role == RoleSuperAdmin }

// HomeChoir returns the principal's own tenant id, if any.
func (p *Principal) HomeChoir() (string, bool) {
	if p == nil || p.ChoirID == nil || *p.ChoirID == "" {
		return "", false
	}
	return *p.ChoirID, true
}

// Scope is the tenant restriction applied to a query. A nil ChoirID means
// unscoped, which only a super admin can obtain.
type Scope struct {
	ChoirID *string
}

// Global reports whether the scope spans every tenant.
func (s Scope) Global() bool { return s.ChoirID == nil }

// ScopeTo returns a scope restricted to choirID.
func ScopeTo(choirID string) Scope { return Scope{ChoirID: &choirID} }

// Page carries list pagination. All bypasses Limit/Offset.
type Page struct {
	Page  int
	Limit int
	All   bool
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
