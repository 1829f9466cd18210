package tenancy

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Permission objects and actions used by role-gated routes.
const (
	ObjContent = "content"
	ObjCatalog = "catalog"
	ObjUsers   = "users"
	ObjLogs    = "logs"
	ObjChoirs  = "choirs"

	ActRead   = "read"
	ActWrite  = "write"
	ActManage = "manage"
)

var allRoles = []model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleEditor, model.RoleViewer}

// ForbiddenError is returned when a role may not perform an action. It names
// the roles that may.
type ForbiddenError struct {
	Object  string
	Action  string
	Allowed []model.Role
}

func (e *ForbiddenError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, r := range e.Allowed {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s %s requires one of: %s", e.Action, e.Object, strings.Join(names, ", "))
}

// Policy decides role-gated actions with casbin. It is independent of tenant
// scoping: a permitted role still only reaches its own choir's data.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy loads the embedded model and policy.
func NewPolicy() (*Policy, error) {
	m, err := casbinmodel.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadEmbeddedPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Policy{enforcer: e}, nil
}

func loadEmbeddedPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role may perform act on obj.
func (p *Policy) Allowed(role model.Role, obj, act string) bool {
	if !role.Valid() {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), obj, act)
	return err == nil && ok
}

// Authorize returns nil when role may perform act on obj and a
// *ForbiddenError otherwise.
func (p *Policy) Authorize(role model.Role, obj, act string) error {
	if p.Allowed(role, obj, act) {
		return nil
	}
	metrics.ScopeDenials.WithLabelValues("role").Inc()
	return &ForbiddenError{Object: obj, Action: act, Allowed: p.RolesFor(obj, act)}
}

// RolesFor lists the roles allowed to perform act on obj, highest first.
func (p *Policy) RolesFor(obj, act string) []model.Role {
	var out []model.Role
	for _, r := range allRoles {
		if ok, err := p.enforcer.Enforce(string(r), obj, act); err == nil && ok {
			out = append(out, r)
		}
	}
	return out
}
